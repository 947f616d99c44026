package publisher

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

func sampleRun(state models.CompletionState) *models.PredictionRun {
	return &models.PredictionRun{
		ID:        uuid.New(),
		Season:    2024,
		Round:     16,
		EventName: "Italian Grand Prix",
		Session:   models.SessionRace,
		State:     state,
		Results: []models.PredictionResult{
			{Rank: 1, Driver: "LEC", Score: 25},
			{Rank: 2, Driver: "PIA", Score: 18},
		},
		CreatedAt: time.Date(2024, 9, 1, 16, 0, 0, 0, time.UTC),
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(sampleRun(models.StateQualifyingDone))
	assert.Equal(t, TypePrediction, msg.Type)
	assert.Equal(t, "LEC", msg.Winner)

	msg = NewMessage(sampleRun(models.StateAllSessionsDone))
	assert.Equal(t, TypeReplay, msg.Type)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"replay"`)
	assert.Contains(t, string(data), `"event_name":"Italian Grand Prix"`)
}

func TestNewRedisPublisherValidation(t *testing.T) {
	_, err := NewRedisPublisher("http://localhost:6379", "f1predict:runs", nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = NewRedisPublisher("redis://localhost:6379/0", "", nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestPublishUnreachableServer(t *testing.T) {
	p, err := NewRedisPublisher("redis://127.0.0.1:1/0?dial_timeout=100ms", "f1predict:runs", nil)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = p.Publish(ctx, sampleRun(models.StateQualifyingDone))
	assert.Error(t, err)
	assert.Error(t, p.Ping(ctx))
}

func TestPublishIntegration(t *testing.T) {
	url := os.Getenv("F1PREDICT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Integration test - set F1PREDICT_TEST_REDIS_URL to run against Redis")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	sub := redis.NewClient(opts).Subscribe(ctx, "f1predict:test")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	p, err := NewRedisPublisher(url, "f1predict:test", logger.NewAuditLogger(logger.Discard()))
	require.NoError(t, err)
	defer p.Close()

	run := sampleRun(models.StateQualifyingDone)
	receivers, err := p.Publish(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, int64(1), receivers)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got Message
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, run.ID, got.Run.ID)
	assert.Equal(t, "LEC", got.Winner)
}
