package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage of the prediction pipeline.
var (
	// ErrConfiguration marks invalid flags, config values or an empty roster.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataUnavailable marks a missing session, telemetry or forecast.
	// It is converted to defaults before it reaches the pipeline caller.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrModelUnavailable marks a model artifact that is missing or unreadable.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrPredictionInconsistency marks a mismatch between scores and roster.
	ErrPredictionInconsistency = errors.New("prediction inconsistency")

	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// ConfigurationErrorf wraps a formatted message with ErrConfiguration.
func ConfigurationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// DataUnavailableErrorf wraps a formatted message with ErrDataUnavailable.
func DataUnavailableErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// InconsistencyErrorf wraps a formatted message with ErrPredictionInconsistency.
func InconsistencyErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPredictionInconsistency, fmt.Sprintf(format, args...))
}
