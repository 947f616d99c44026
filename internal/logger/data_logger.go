// Package logger provides data source logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// DataLogger provides dedicated logging for external data fetches.
type DataLogger struct {
	*logrus.Entry
}

// NewDataLogger creates a new data source logger.
func NewDataLogger(baseLogger *logrus.Logger) *DataLogger {
	return &DataLogger{
		Entry: baseLogger.WithField("component", "datasource"),
	}
}

// LogFetch logs a completed upstream request.
func (dl *DataLogger) LogFetch(source, resource string, cached bool, latencyMs float64) {
	dl.WithFields(logrus.Fields{
		"source":     source,
		"resource":   resource,
		"cached":     cached,
		"latency_ms": latencyMs,
	}).Debug("Data fetched")
}

// LogUnavailable logs data that could not be obtained.
func (dl *DataLogger) LogUnavailable(source, resource string, err error) {
	dl.WithFields(logrus.Fields{
		"source":   source,
		"resource": resource,
	}).WithError(err).Warn("Data unavailable")
}
