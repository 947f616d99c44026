package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/yourusername/f1-predictor/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS prediction_runs (
	id               TEXT PRIMARY KEY,
	season           INTEGER NOT NULL,
	round            INTEGER NOT NULL,
	event_name       TEXT NOT NULL,
	session          TEXT NOT NULL,
	state            TEXT NOT NULL,
	weather_source   TEXT NOT NULL,
	rain_probability REAL NOT NULL,
	driver_filter    TEXT NOT NULL DEFAULT '',
	results          TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS prediction_runs_event_idx ON prediction_runs (season, round, created_at);
`

// sqliteTime is fixed width so timestamps sort as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

const sqliteColumns = `id, season, round, event_name, session, state, weather_source, rain_probability, driver_filter, results, created_at`

// SQLitePredictionRunRepository implements PredictionRunRepository on a local SQLite file
type SQLitePredictionRunRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLitePredictionRunRepository opens or creates the database at path
func NewSQLitePredictionRunRepository(ctx context.Context, path string) (*SQLitePredictionRunRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise %s: %w", path, err)
	}
	return &SQLitePredictionRunRepository{db: db}, nil
}

// Save inserts a run
func (r *SQLitePredictionRunRepository) Save(ctx context.Context, run *models.PredictionRun) error {
	if err := validateRun(run); err != nil {
		return err
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO prediction_runs (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Season, run.Round, run.EventName, string(run.Session), string(run.State),
		string(run.WeatherSource), run.RainProbability, run.DriverFilter, string(results),
		run.CreatedAt.UTC().Format(sqliteTime),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: prediction run %s", models.ErrDuplicateKey, run.ID)
		}
		return fmt.Errorf("failed to insert prediction run: %w", err)
	}
	return nil
}

// GetByID retrieves a run
func (r *SQLitePredictionRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM prediction_runs WHERE id = ?`, id.String())
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: prediction run %s", models.ErrNotFound, id)
	}
	return run, err
}

// List returns runs newest first
func (r *SQLitePredictionRunRepository) List(ctx context.Context, filter Filter) ([]*models.PredictionRun, error) {
	var where []string
	var args []interface{}
	if filter.Season > 0 {
		where = append(where, "season = ?")
		args = append(args, filter.Season)
	}
	if filter.Round > 0 {
		where = append(where, "round = ?")
		args = append(args, filter.Round)
	}

	query := `SELECT ` + sqliteColumns + ` FROM prediction_runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limitOf(filter))

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PredictionRun
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction runs: %w", err)
	}
	return runs, nil
}

// Ping verifies the database is reachable
func (r *SQLitePredictionRunRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLitePredictionRunRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteRun(s scanner) (*models.PredictionRun, error) {
	var (
		run                        models.PredictionRun
		id, session, state, source string
		results, createdAt         string
	)
	err := s.Scan(&id, &run.Season, &run.Round, &run.EventName, &session, &state,
		&source, &run.RainProbability, &run.DriverFilter, &results, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prediction run: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	if run.CreatedAt, err = time.Parse(sqliteTime, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if err := json.Unmarshal([]byte(results), &run.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results of run %s: %w", id, err)
	}
	run.Session = models.SessionType(session)
	run.State = models.CompletionState(state)
	run.WeatherSource = models.WeatherSource(source)
	return &run, nil
}
