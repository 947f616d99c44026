// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides the audit trail of recorded prediction runs.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRunRecorded logs a prediction run written to the history store.
func (al *AuditLogger) LogRunRecorded(runID string, season, round int, session, store string, createdAt time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":     runID,
		"season":     season,
		"round":      round,
		"session":    session,
		"store":      store,
		"created_at": createdAt.Unix(),
	}).Info("Prediction run recorded")
}

// LogRunPublished logs a prediction run published to subscribers.
func (al *AuditLogger) LogRunPublished(runID, channel string, receivers int64) {
	al.WithFields(logrus.Fields{
		"run_id":    runID,
		"channel":   channel,
		"receivers": receivers,
	}).Info("Prediction run published")
}

// LogScheduledRunFailed logs a scheduled run that did not complete.
func (al *AuditLogger) LogScheduledRunFailed(reason string, err error) {
	al.WithFields(logrus.Fields{
		"reason": reason,
	}).WithError(err).Error("Scheduled prediction failed")
}
