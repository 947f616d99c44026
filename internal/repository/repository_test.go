package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/database"
	"github.com/yourusername/f1-predictor/internal/models"
)

func newRun(season, round int, created time.Time) *models.PredictionRun {
	return &models.PredictionRun{
		ID:              uuid.New(),
		Season:          season,
		Round:           round,
		EventName:       "Italian Grand Prix",
		Session:         models.SessionRace,
		State:           models.StateQualifyingDone,
		WeatherSource:   models.WeatherOverride,
		RainProbability: 0.3,
		Results: []models.PredictionResult{
			{Rank: 1, Driver: "LEC", Score: 18.25, QualifyingPosition: 1, GridPosition: 1},
			{Rank: 2, Driver: "NOR", Score: 17.5, QualifyingPosition: 2, GridPosition: 2},
		},
		CreatedAt: created.UTC(),
	}
}

func openSQLite(t *testing.T) *SQLitePredictionRunRepository {
	t.Helper()
	repo, err := NewSQLitePredictionRunRepository(context.Background(), filepath.Join(t.TempDir(), "history", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// exerciseRepository runs the behaviour shared by every backend.
func exerciseRepository(t *testing.T, repo PredictionRunRepository) {
	ctx := context.Background()
	base := time.Date(2024, 8, 31, 18, 0, 0, 0, time.UTC)

	first := newRun(2024, 16, base)
	second := newRun(2024, 16, base.Add(90*time.Minute+500*time.Millisecond))
	other := newRun(2024, 15, base.Add(-7*24*time.Hour))
	other.DriverFilter = "VER"
	for _, run := range []*models.PredictionRun{first, second, other} {
		require.NoError(t, repo.Save(ctx, run))
	}

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = repo.Save(ctx, first)
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{second.ID, first.ID, other.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	monza, err := repo.List(ctx, Filter{Season: 2024, Round: 16})
	require.NoError(t, err)
	assert.Len(t, monza, 2)

	latest, err := repo.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second.ID, latest[0].ID)

	none, err := repo.List(ctx, Filter{Season: 2019})
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.NoError(t, repo.Ping(ctx))
}

func TestSQLiteRepository(t *testing.T) {
	exerciseRepository(t, openSQLite(t))
}

func TestSQLiteRepositoryPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	repo, err := NewSQLitePredictionRunRepository(ctx, path)
	require.NoError(t, err)
	run := newRun(2024, 5, time.Now())
	require.NoError(t, repo.Save(ctx, run))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLitePredictionRunRepository(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Results, got.Results)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
}

func TestSaveRejectsInvalidRun(t *testing.T) {
	repo := openSQLite(t)

	assert.Error(t, repo.Save(context.Background(), nil))
	assert.Error(t, repo.Save(context.Background(), &models.PredictionRun{ID: uuid.New()}))
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewFromConfig(ctx, &config.Config{Storage: config.StorageConfig{Driver: "none"}})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = NewFromConfig(ctx, &config.Config{Storage: config.StorageConfig{Driver: "mongo"}})
	assert.ErrorIs(t, err, models.ErrConfiguration)

	repo, err := NewFromConfig(ctx, &config.Config{Storage: config.StorageConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "runs.db"),
	}})
	require.NoError(t, err)
	assert.IsType(t, &SQLitePredictionRunRepository{}, repo)
	assert.NoError(t, repo.Close())
}

func TestPostgresRepository(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	exerciseRepository(t, NewPostgresPredictionRunRepository(db))
}
