// Package publisher announces recorded prediction runs on a Redis channel.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

// Message types
const (
	TypePrediction = "prediction"
	TypeReplay     = "replay"
)

// Message is the payload published for one run.
type Message struct {
	Type   string                `json:"type"`
	Winner string                `json:"winner"`
	Run    *models.PredictionRun `json:"run"`
}

// NewMessage wraps a run for publication.
func NewMessage(run *models.PredictionRun) Message {
	msgType := TypePrediction
	if run.IsReplay() {
		msgType = TypeReplay
	}
	return Message{Type: msgType, Winner: run.Winner(), Run: run}
}

// RedisPublisher publishes runs with Redis PUBLISH.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	audit   *logger.AuditLogger
}

// NewRedisPublisher connects to the server named by a redis:// URL.
func NewRedisPublisher(redisURL, channel string, audit *logger.AuditLogger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, models.ConfigurationErrorf("invalid publisher.redis_url: %v", err)
	}
	if channel == "" {
		return nil, models.ConfigurationErrorf("publisher.channel is required")
	}
	return &RedisPublisher{client: redis.NewClient(opts), channel: channel, audit: audit}, nil
}

// Publish sends the run and returns how many subscribers received it.
func (p *RedisPublisher) Publish(ctx context.Context, run *models.PredictionRun) (int64, error) {
	data, err := json.Marshal(NewMessage(run))
	if err != nil {
		return 0, fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish run %s to %s: %w", run.ID, p.channel, err)
	}
	if p.audit != nil {
		p.audit.LogRunPublished(run.ID.String(), p.channel, receivers)
	}
	return receivers, nil
}

// Ping verifies the server is reachable.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
