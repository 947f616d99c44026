package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/f1-predictor/internal/config"
)

// Schema creates the prediction history tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS prediction_runs (
	id               UUID PRIMARY KEY,
	season           INTEGER NOT NULL,
	round            INTEGER NOT NULL,
	event_name       TEXT NOT NULL,
	session          TEXT NOT NULL,
	state            TEXT NOT NULL,
	weather_source   TEXT NOT NULL,
	rain_probability DOUBLE PRECISION NOT NULL,
	driver_filter    TEXT NOT NULL DEFAULT '',
	results          JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS prediction_runs_event_idx ON prediction_runs (season, round, created_at DESC);
`

// Initialize opens the database and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	err = db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, Schema)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}
