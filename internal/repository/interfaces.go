package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/f1-predictor/internal/models"
)

// Filter narrows a history listing. Zero fields match everything.
type Filter struct {
	Season int
	Round  int
	// Limit caps the number of runs returned, newest first.
	Limit int
}

// PredictionRunRepository defines the interface for prediction history access
type PredictionRunRepository interface {
	// Save records a run. Saving the same run ID twice fails with models.ErrDuplicateKey.
	Save(ctx context.Context, run *models.PredictionRun) error
	// GetByID fails with models.ErrNotFound for an unknown run.
	GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error)
	// List returns runs newest first.
	List(ctx context.Context, filter Filter) ([]*models.PredictionRun, error)
	Ping(ctx context.Context) error
	Close() error
}
