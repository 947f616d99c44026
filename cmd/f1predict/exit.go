package main

import (
	"errors"

	"github.com/yourusername/f1-predictor/internal/models"
)

// Process exit codes
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitModel         = 3
	exitInconsistency = 4
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, models.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, models.ErrModelUnavailable):
		return exitModel
	case errors.Is(err, models.ErrPredictionInconsistency):
		return exitInconsistency
	default:
		return exitFailure
	}
}
