package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("race"))

	RecordPrediction("race", 1.5, 1720274400)

	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues("race")))
	assert.Equal(t, float64(1720274400), testutil.ToFloat64(LastPredictionTimestamp))
}

func TestRecordFallback(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(FeatureFallbacksTotal.WithLabelValues("RacePace"))

	RecordFallback("RacePace")
	RecordFallback("RacePace")

	assert.Equal(t, before+2, testutil.ToFloat64(FeatureFallbacksTotal.WithLabelValues("RacePace")))
}

func TestRecordCacheLookup(t *testing.T) {
	InitRegistry()
	hits := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("disk", "hit"))
	misses := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("disk", "miss"))

	RecordCacheLookup("disk", true)
	RecordCacheLookup("disk", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("disk", "hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("disk", "miss")))
}

func TestUpdateTrainingResult(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordTrainingRun("sprint", "success")
		UpdateTrainingResult("sprint", 120, 2.4, 0.8)
	})
	assert.Equal(t, float64(120), testutil.ToFloat64(TrainingRows.WithLabelValues("sprint")))
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordWeather("default")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "f1predict_weather_resolutions_total")
}

func TestWriteTextfile(t *testing.T) {
	InitRegistry()
	RecordReplay()

	path := filepath.Join(t.TempDir(), "f1predict.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "f1predict_replays_total")
}
