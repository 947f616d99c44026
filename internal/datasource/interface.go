package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/f1-predictor/internal/models"
)

// SessionDataSource provides the calendar, classifications and practice
// telemetry of championship weekends.
//
// Result methods return an empty slice and a nil error for sessions that have
// not run yet.
type SessionDataSource interface {
	// Calendar returns every weekend of a season ordered by round
	Calendar(ctx context.Context, season int) ([]models.RaceWeekend, error)

	// Qualifying returns the qualifying classification of a round
	Qualifying(ctx context.Context, season, round int) ([]models.QualifyingResult, error)

	// Sprint returns the sprint classification of a round
	Sprint(ctx context.Context, season, round int) ([]models.RaceResult, error)

	// Race returns the race classification of a round
	Race(ctx context.Context, season, round int) ([]models.RaceResult, error)

	// SeasonResults returns race classifications of every round before the given one
	SeasonResults(ctx context.Context, season, beforeRound int) ([]models.RaceResult, error)

	// Practice returns the most representative practice session of a weekend.
	// It fails with models.ErrDataUnavailable when no session was run or published.
	Practice(ctx context.Context, weekend *models.RaceWeekend) (*models.PracticeSession, error)
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying error to errors.Is.
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeUnknown           = "unknown"
)

// Error constructors
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotFound          = errors.New("data not found")
	ErrInvalidData       = errors.New("invalid data format")
	ErrNetworkError      = errors.New("network error")
	ErrServerError       = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
