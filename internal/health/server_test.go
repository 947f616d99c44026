package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthReportsNextRun(t *testing.T) {
	next := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	s := NewServer(Config{ServiceName: "f1predict", Version: "dev", NextRun: func() time.Time { return next }})

	rec := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "f1predict", body.Service)
	assert.Equal(t, "2024-09-01T12:00:00Z", body.NextRun)
}

func TestReadyChecks(t *testing.T) {
	var storeErr error
	s := NewServer(Config{
		ServiceName: "f1predict",
		Checks: map[string]Pinger{
			"history": pingerFunc(func(context.Context) error { return storeErr }),
		},
	})

	rec := get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready until marked")

	s.SetReady(true)
	rec = get(t, s.Handler(), "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	var body ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"service": "ok", "history": "ok"}, body.Checks)

	storeErr = errors.New("database is locked")
	rec = get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.InitRegistry()
	metrics.RecordScheduledRun("success")

	s := NewServer(Config{MetricsPath: "/metrics"})
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "f1predict_")

	s = NewServer(Config{})
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}
