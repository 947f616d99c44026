// Package ml holds the session models: scoring, persistence and training.
package ml

import (
	"fmt"

	"github.com/yourusername/f1-predictor/internal/models"
)

// Scorer maps one feature row to a relevance score. Higher is better.
// Scoring is a pure function of the row.
type Scorer interface {
	Session() models.SessionType
	Score(row *models.FeatureVector) float64
}

// Sessions lists the sessions that have a model, in weekend order.
var Sessions = []models.SessionType{
	models.SessionQualifying,
	models.SessionSprint,
	models.SessionRace,
}

var qualifyingFeatures = []models.FeatureName{
	models.FeatureTrackTemp,
	models.FeatureOvertakeDifficulty,
	models.FeatureDriverAvgPos,
	models.FeatureDriverDNFRate,
	models.FeatureQualiDeltaTeammate,
	models.FeatureReliabilityScore,
}

// FeatureSet returns the columns a session's model consumes.
func FeatureSet(session models.SessionType) ([]models.FeatureName, error) {
	switch session {
	case models.SessionQualifying:
		return append([]models.FeatureName(nil), qualifyingFeatures...), nil
	case models.SessionSprint:
		return append(append([]models.FeatureName(nil), qualifyingFeatures...),
			models.FeatureGridPosition, models.FeatureRainProbability), nil
	case models.SessionRace:
		return append([]models.FeatureName(nil), models.FeatureNames...), nil
	default:
		return nil, fmt.Errorf("no model for %s session", session)
	}
}

// FileName returns the artifact name of a session's model.
func FileName(session models.SessionType) string {
	return string(session) + "_model.json"
}

// Relevance is the training target of a classified position in a field of
// fieldSize drivers. Unclassified entries score zero.
func Relevance(position, fieldSize int) float64 {
	if position <= 0 || position > fieldSize {
		return 0
	}
	return float64(fieldSize + 1 - position)
}
