// Package metrics provides the centralized Prometheus metrics registry for the predictor.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "f1predict"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of model runs by session",
	}, []string{"session"})
	ReplaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replays_total",
		Help:      "Total number of runs that reported final results of a finished weekend",
	})
	FeatureFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_fallbacks_total",
		Help:      "Total number of feature values filled from defaults",
	}, []string{"feature"})
	WeatherResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weather_resolutions_total",
		Help:      "Total number of weather resolutions by source",
	}, []string{"source"})
	ScheduledRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_runs_total",
		Help:      "Total number of scheduled runs by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	LastPredictionTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_prediction_timestamp_seconds",
		Help:      "Unix time of the last completed prediction run",
	})
)

// Histogram metrics
var (
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of a complete prediction run in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	ModelScoreDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "model_score_duration_seconds",
		Help:      "Duration of scoring a feature table in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"session"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(ReplaysTotal)
		registry.MustRegister(FeatureFallbacksTotal)
		registry.MustRegister(WeatherResolutionsTotal)
		registry.MustRegister(ScheduledRunsTotal)

		registry.MustRegister(LastPredictionTimestamp)

		registry.MustRegister(PipelineDuration)
		registry.MustRegister(ModelScoreDuration)

		// Register data source metrics
		registry.MustRegister(DataSourceRequestsTotal)
		registry.MustRegister(CacheLookupsTotal)
		registry.MustRegister(DataSourceLatency)

		// Register training metrics
		registry.MustRegister(TrainingRunsTotal)
		registry.MustRegister(TrainingRows)
		registry.MustRegister(TrainingRMSE)
		registry.MustRegister(TrainingDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, GetRegistry())
}

// RecordPrediction records a completed model run.
func RecordPrediction(session string, durationSeconds float64, finishedAtUnix float64) {
	PredictionsTotal.WithLabelValues(session).Inc()
	PipelineDuration.Observe(durationSeconds)
	LastPredictionTimestamp.Set(finishedAtUnix)
}

// RecordReplay records a run that reported final results.
func RecordReplay() {
	ReplaysTotal.Inc()
}

// RecordFallback records a feature filled from defaults.
func RecordFallback(feature string) {
	FeatureFallbacksTotal.WithLabelValues(feature).Inc()
}

// RecordWeather records the source a run's forecast came from.
func RecordWeather(source string) {
	WeatherResolutionsTotal.WithLabelValues(source).Inc()
}

// RecordModelScore records the time spent scoring one table.
func RecordModelScore(session string, durationSeconds float64) {
	ModelScoreDuration.WithLabelValues(session).Observe(durationSeconds)
}

// RecordScheduledRun records the outcome of a scheduled run.
func RecordScheduledRun(status string) {
	ScheduledRunsTotal.WithLabelValues(status).Inc()
}
