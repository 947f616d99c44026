package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

func TestFeatureSet(t *testing.T) {
	tests := []struct {
		session models.SessionType
		size    int
		last    models.FeatureName
	}{
		{models.SessionQualifying, 6, models.FeatureReliabilityScore},
		{models.SessionSprint, 8, models.FeatureRainProbability},
		{models.SessionRace, 11, models.FeatureRainProbability},
	}
	for _, tt := range tests {
		t.Run(string(tt.session), func(t *testing.T) {
			set, err := FeatureSet(tt.session)
			require.NoError(t, err)
			assert.Len(t, set, tt.size)
			assert.Equal(t, tt.last, set[len(set)-1])
		})
	}

	_, err := FeatureSet(models.SessionPractice)
	assert.Error(t, err)
}

func TestRelevance(t *testing.T) {
	assert.Equal(t, 20.0, Relevance(1, 20))
	assert.Equal(t, 1.0, Relevance(20, 20))
	assert.Equal(t, 0.0, Relevance(0, 20))
	assert.Equal(t, 0.0, Relevance(21, 20))
}

// stumpModel splits qualifying rows on DriverAvgPos at 5.
func stumpModel() *Model {
	features, _ := FeatureSet(models.SessionQualifying)
	return &Model{
		Info:         models.ModelInfo{Session: models.SessionQualifying, Version: "test", Features: features},
		BaseScore:    10,
		LearningRate: 0.5,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 2, Threshold: 5, Left: 1, Right: 2},
			{Feature: -1, Value: 8},
			{Feature: -1, Value: -8},
		}}},
	}
}

func TestModelScore(t *testing.T) {
	m := stumpModel()
	require.NoError(t, m.Validate())

	front := &models.FeatureVector{DriverAvgPos: 2}
	back := &models.FeatureVector{DriverAvgPos: 15}

	assert.Equal(t, 14.0, m.Score(front))
	assert.Equal(t, 6.0, m.Score(back))
	assert.Equal(t, m.Score(front), m.Score(front))
}

func TestModelValidate(t *testing.T) {
	t.Run("child index out of range", func(t *testing.T) {
		m := stumpModel()
		m.Trees[0].Nodes[0].Right = 7
		assert.Error(t, m.Validate())
	})
	t.Run("self reference", func(t *testing.T) {
		m := stumpModel()
		m.Trees[0].Nodes[0].Left = 0
		assert.Error(t, m.Validate())
	})
	t.Run("wrong feature order", func(t *testing.T) {
		m := stumpModel()
		m.Info.Features[0], m.Info.Features[1] = m.Info.Features[1], m.Info.Features[0]
		assert.Error(t, m.Validate())
	})
	t.Run("missing version", func(t *testing.T) {
		m := stumpModel()
		m.Info.Version = ""
		assert.Error(t, m.Validate())
	})
}

func TestLoadFailuresAreModelUnavailable(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.json"), corrupt} {
		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrModelUnavailable), path)
	}
}

func TestBank(t *testing.T) {
	dir := t.TempDir()
	bank := NewBank(dir, logger.NewMLLogger(logger.Discard()))

	_, err := bank.Get(models.SessionQualifying)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrModelUnavailable))

	require.NoError(t, Save(bank.Path(models.SessionQualifying), stumpModel()))
	scorer, err := bank.Get(models.SessionQualifying)
	require.NoError(t, err)
	assert.Equal(t, models.SessionQualifying, scorer.Session())
	assert.Equal(t, 14.0, scorer.Score(&models.FeatureVector{DriverAvgPos: 1}))

	// A qualifying artifact saved under the race name is rejected.
	require.NoError(t, Save(bank.Path(models.SessionRace), stumpModel()))
	_, err = bank.Get(models.SessionRace)
	assert.True(t, errors.Is(err, models.ErrModelUnavailable))

	_, err = bank.Get(models.SessionPractice)
	assert.True(t, errors.Is(err, models.ErrModelUnavailable))

	infos := bank.Info()
	require.Len(t, infos, 1)
	assert.Equal(t, "test", infos[0].Version)
}

func trainingSet() Dataset {
	var ds Dataset
	for pos := 1; pos <= 10; pos++ {
		ds.Rows = append(ds.Rows, models.FeatureVector{
			Driver:       string(rune('A'+pos-1)) + "XX",
			DriverAvgPos: float64(pos),
			TrackTemp:    30,
		})
		ds.Targets = append(ds.Targets, Relevance(pos, 10))
	}
	ds.Seasons = []int{2024}
	return ds
}

func testTrainer() *Trainer {
	tr := NewTrainer(config.TrainingConfig{Estimators: 50, LearningRate: 0.3, MaxDepth: 3, MinSamplesLeaf: 1}, logger.NewMLLogger(logger.Discard()))
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }
	return tr
}

func TestTrainerLearnsOrdering(t *testing.T) {
	m, err := testTrainer().Train(models.SessionQualifying, trainingSet())
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Len(t, m.Trees, 50)
	assert.Equal(t, 10, m.Info.Rows)
	assert.Equal(t, []int{2024}, m.Info.Seasons)
	assert.Equal(t, "qualifying-20250101T000000", m.Info.Version)

	rmse, ok := m.Info.GetMetric("train_rmse")
	require.True(t, ok)
	assert.Less(t, rmse, 0.5)

	fast := m.Score(&models.FeatureVector{DriverAvgPos: 1, TrackTemp: 30})
	slow := m.Score(&models.FeatureVector{DriverAvgPos: 10, TrackTemp: 30})
	assert.Greater(t, fast, slow)
}

func TestTrainerIsDeterministic(t *testing.T) {
	a, err := testTrainer().Train(models.SessionRace, trainingSet())
	require.NoError(t, err)
	b, err := testTrainer().Train(models.SessionRace, trainingSet())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTrainerRejectsBadInput(t *testing.T) {
	ds := trainingSet()
	ds.Targets = ds.Targets[:3]
	_, err := testTrainer().Train(models.SessionRace, ds)
	assert.Error(t, err)

	_, err = testTrainer().Train(models.SessionRace, Dataset{Rows: []models.FeatureVector{{}}, Targets: []float64{1}})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}
