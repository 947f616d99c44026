package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/f1-predictor/internal/database"
	"github.com/yourusername/f1-predictor/internal/models"
)

const uniqueViolation = "23505"

const postgresColumns = `id, season, round, event_name, session, state, weather_source, rain_probability, driver_filter, results, created_at`

// PostgresPredictionRunRepository implements PredictionRunRepository for PostgreSQL
type PostgresPredictionRunRepository struct {
	db *database.DB
}

// NewPostgresPredictionRunRepository creates a new prediction run repository
func NewPostgresPredictionRunRepository(db *database.DB) *PostgresPredictionRunRepository {
	return &PostgresPredictionRunRepository{db: db}
}

// Save inserts a run
func (r *PostgresPredictionRunRepository) Save(ctx context.Context, run *models.PredictionRun) error {
	if err := validateRun(run); err != nil {
		return err
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	query := `
		INSERT INTO prediction_runs (` + postgresColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.Pool().Exec(ctx, query,
		run.ID, run.Season, run.Round, run.EventName, string(run.Session), string(run.State),
		string(run.WeatherSource), run.RainProbability, run.DriverFilter, results, run.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: prediction run %s", models.ErrDuplicateKey, run.ID)
		}
		return fmt.Errorf("failed to insert prediction run: %w", err)
	}
	return nil
}

// GetByID retrieves a run
func (r *PostgresPredictionRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error) {
	query := `SELECT ` + postgresColumns + ` FROM prediction_runs WHERE id = $1`

	run, err := scanPostgresRun(r.db.Pool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: prediction run %s", models.ErrNotFound, id)
	}
	return run, err
}

// List returns runs newest first
func (r *PostgresPredictionRunRepository) List(ctx context.Context, filter Filter) ([]*models.PredictionRun, error) {
	query := `
		SELECT ` + postgresColumns + `
		FROM prediction_runs
		WHERE ($1 = 0 OR season = $1) AND ($2 = 0 OR round = $2)
		ORDER BY created_at DESC, id
		LIMIT $3
	`

	rows, err := r.db.Pool().Query(ctx, query, filter.Season, filter.Round, limitOf(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PredictionRun
	for rows.Next() {
		run, err := scanPostgresRun(rows)
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

// Ping verifies database connectivity
func (r *PostgresPredictionRunRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close closes the connection pool
func (r *PostgresPredictionRunRepository) Close() error {
	r.db.Close()
	return nil
}

func scanPostgresRun(row pgx.Row) (*models.PredictionRun, error) {
	var (
		run                    models.PredictionRun
		session, state, source string
		results                []byte
	)
	err := row.Scan(&run.ID, &run.Season, &run.Round, &run.EventName, &session, &state,
		&source, &run.RainProbability, &run.DriverFilter, &results, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prediction run: %w", err)
	}
	if err := json.Unmarshal(results, &run.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results of run %s: %w", run.ID, err)
	}
	run.Session = models.SessionType(session)
	run.State = models.CompletionState(state)
	run.WeatherSource = models.WeatherSource(source)
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}
