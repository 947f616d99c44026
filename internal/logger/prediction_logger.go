// Package logger provides prediction pipeline logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for the prediction pipeline.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new pipeline logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogEventSelected logs the weekend chosen for a run.
func (pl *PredictionLogger) LogEventSelected(season, round int, name, state string) {
	pl.WithFields(logrus.Fields{
		"season": season,
		"round":  round,
		"event":  name,
		"state":  state,
	}).Info("Event selected")
}

// LogModelRun logs a completed model invocation.
func (pl *PredictionLogger) LogModelRun(session string, drivers int, topDriver string, topScore float64) {
	pl.WithFields(logrus.Fields{
		"session":    session,
		"drivers":    drivers,
		"top_driver": topDriver,
		"top_score":  topScore,
	}).Info("Model run completed")
}

// LogFallback logs a feature filled from defaults.
func (pl *PredictionLogger) LogFallback(driver, feature string, value float64, reason string) {
	pl.WithFields(logrus.Fields{
		"driver":  driver,
		"feature": feature,
		"value":   value,
		"reason":  reason,
	}).Warn("Feature defaulted")
}

// LogWeather logs the forecast a run will use.
func (pl *PredictionLogger) LogWeather(source string, rainProbability, temperature float64) {
	pl.WithFields(logrus.Fields{
		"source":           source,
		"rain_probability": rainProbability,
		"temperature":      temperature,
	}).Info("Weather resolved")
}

// LogWeatherFallback logs a forecast failure that was replaced by the default.
func (pl *PredictionLogger) LogWeatherFallback(reason string) {
	pl.WithField("reason", reason).Warn("Weather unavailable, using default forecast")
}

// LogReplay logs a run that reports final results instead of predicting.
func (pl *PredictionLogger) LogReplay(season, round int) {
	pl.WithFields(logrus.Fields{
		"season": season,
		"round":  round,
	}).Info("All sessions complete, reporting final classification")
}
