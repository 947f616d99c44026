package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestPredictionLoggerFallback(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogFallback("BOR", "RacePace", 0.42, "no practice long runs")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pipeline", logEntry["component"])
	assert.Equal(t, "BOR", logEntry["driver"])
	assert.Equal(t, "RacePace", logEntry["feature"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestPredictionLoggerModelRun(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogModelRun("race", 20, "VER", 18.25)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "race", logEntry["session"])
	assert.Equal(t, float64(20), logEntry["drivers"])
	assert.Equal(t, "VER", logEntry["top_driver"])
}

func TestPredictionLoggerWeatherFallback(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogWeatherFallback("timeout")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "timeout", logEntry["reason"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestMLLoggerModelTraining(t *testing.T) {
	log, buf := setupTestLogger()
	ml := NewMLLogger(log)

	ml.LogModelTraining(
		"qualifying",
		2.5,
		map[string]float64{"rmse": 3.1},
		map[string]interface{}{"estimators": 100},
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ml", logEntry["component"])
	assert.Equal(t, "qualifying", logEntry["session"])
	assert.NotNil(t, logEntry["metrics"])
}

func TestAuditLoggerRunRecorded(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	ts := time.Date(2024, 7, 6, 14, 0, 0, 0, time.UTC)
	al.LogRunRecorded("run-1", 2024, 12, "race", "sqlite", ts)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, float64(ts.Unix()), logEntry["created_at"])
}

func TestAuditLoggerScheduledRunFailed(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	al.LogScheduledRunFailed("model unavailable", errors.New("race model missing"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "race model missing", logEntry["error"])
}

func TestDataLoggerUnavailable(t *testing.T) {
	log, buf := setupTestLogger()
	dl := NewDataLogger(log)

	dl.LogUnavailable("openf1", "laps", errors.New("404"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "datasource", logEntry["component"])
	assert.Equal(t, "laps", logEntry["resource"])
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerWithOutput("loud", buf)

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestNewLoggerLevel(t *testing.T) {
	log := NewLoggerWithOutput("debug", &bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}
