package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/yourusername/f1-predictor/internal/features"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/models"
)

// Score runs the scorer over every row and returns the ranked field.
// Higher scores rank first; equal scores rank by ascending driver code.
func Score(table *features.Table, scorer ml.Scorer) ([]models.PredictionResult, error) {
	start := time.Now()
	rows := table.Rows()
	results := make([]models.PredictionResult, 0, len(rows))
	for i := range rows {
		s := scorer.Score(&rows[i])
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, models.InconsistencyErrorf("%s model scored %s as %v", scorer.Session(), rows[i].Driver, s)
		}
		results = append(results, models.PredictionResult{Driver: rows[i].Driver, Score: s})
	}
	metrics.RecordModelScore(string(scorer.Session()), time.Since(start).Seconds())

	Rank(results)
	if len(results) != table.Len() {
		return nil, models.InconsistencyErrorf("%d scores for %d drivers", len(results), table.Len())
	}
	return results, nil
}

// Rank orders results in place and assigns ranks from 1.
func Rank(results []models.PredictionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Driver < results[j].Driver
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

// Project returns the single result of driver from a ranked field.
func Project(results []models.PredictionResult, driver string) ([]models.PredictionResult, error) {
	for _, r := range results {
		if r.Driver == driver {
			return []models.PredictionResult{r}, nil
		}
	}
	return nil, models.InconsistencyErrorf("driver %s is not entered in this session", driver)
}
