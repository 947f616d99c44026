// Package metrics defines training-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Training counter vectors
var (
	TrainingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "training_runs_total",
		Help:      "Total number of model training runs by session and status",
	}, []string{"session", "status"})
)

// Training gauge vectors
var (
	TrainingRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "training_rows",
		Help:      "Rows used to train the latest model of each session",
	}, []string{"session"})

	TrainingRMSE = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "training_rmse",
		Help:      "In-sample root mean squared error of the latest model of each session",
	}, []string{"session"})
)

// Training histograms
var (
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "training_duration_seconds",
		Help:      "Duration of model training in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// RecordTrainingRun records a training run.
// status should be one of: "success", "skipped", "failure"
func RecordTrainingRun(session, status string) {
	TrainingRunsTotal.WithLabelValues(session, status).Inc()
}

// UpdateTrainingResult records the size and fit of a trained model.
func UpdateTrainingResult(session string, rows int, rmse, durationSeconds float64) {
	TrainingRows.WithLabelValues(session).Set(float64(rows))
	TrainingRMSE.WithLabelValues(session).Set(rmse)
	TrainingDuration.Observe(durationSeconds)
}
