// Package repository records prediction runs in SQLite or PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/database"
	"github.com/yourusername/f1-predictor/internal/models"
)

// ErrStorageDisabled is returned when the configured storage driver is "none".
var ErrStorageDisabled = errors.New("prediction history storage is disabled")

const defaultListLimit = 20

var validate = validator.New()

// NewFromConfig opens the history store selected by storage.driver
func NewFromConfig(ctx context.Context, cfg *config.Config) (PredictionRunRepository, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		repo, err := NewSQLitePredictionRunRepository(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresPredictionRunRepository(db), nil
	case "none", "":
		return nil, ErrStorageDisabled
	default:
		return nil, models.ConfigurationErrorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func validateRun(run *models.PredictionRun) error {
	if run == nil {
		return fmt.Errorf("prediction run is required")
	}
	if err := validate.Struct(run); err != nil {
		return fmt.Errorf("invalid prediction run %s: %w", run.ID, err)
	}
	return nil
}

func limitOf(f Filter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
