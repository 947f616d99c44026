// Package logger provides ML-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// MLLogger provides dedicated logging for model loading and training.
type MLLogger struct {
	*logrus.Entry
}

// NewMLLogger creates a new ML logger.
func NewMLLogger(baseLogger *logrus.Logger) *MLLogger {
	return &MLLogger{
		Entry: baseLogger.WithField("component", "ml"),
	}
}

// LogModelLoaded logs a model artifact read from disk.
func (ml *MLLogger) LogModelLoaded(session, path, version string, trees int) {
	ml.WithFields(logrus.Fields{
		"session": session,
		"path":    path,
		"version": version,
		"trees":   trees,
	}).Debug("Model loaded")
}

// LogDatasetBuilt logs a training dataset assembled for a season.
func (ml *MLLogger) LogDatasetBuilt(season, events, rows int) {
	ml.WithFields(logrus.Fields{
		"season": season,
		"events": events,
		"rows":   rows,
	}).Info("Training data collected")
}

// LogModelTraining logs model training events.
func (ml *MLLogger) LogModelTraining(session string, trainingDuration float64, metrics map[string]float64, hyperparameters map[string]interface{}) {
	ml.WithFields(logrus.Fields{
		"session":           session,
		"training_duration": trainingDuration,
		"metrics":           metrics,
		"hyperparameters":   hyperparameters,
	}).Info("Model training completed")
}

// LogTrainingSkipped logs a session without enough rows to train.
func (ml *MLLogger) LogTrainingSkipped(session string, rows int) {
	ml.WithFields(logrus.Fields{
		"session": session,
		"rows":    rows,
	}).Warn("Not enough rows, model not trained")
}
