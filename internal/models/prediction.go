package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionResult is one ranked line of a report.
// Positions are 1-based; 0 means not applicable.
type PredictionResult struct {
	Rank               int     `json:"rank"`
	Driver             string  `json:"driver"`
	Score              float64 `json:"score"`
	QualifyingPosition int     `json:"qualifying_position"`
	SprintPosition     int     `json:"sprint_position"`
	GridPosition       int     `json:"grid_position"`
	Actual             bool    `json:"actual"`
}

// PredictionRun is a complete run of the pipeline for one weekend.
type PredictionRun struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	Season          int                `db:"season" json:"season" validate:"required"`
	Round           int                `db:"round" json:"round" validate:"required"`
	EventName       string             `db:"event_name" json:"event_name"`
	Session         SessionType        `db:"session" json:"session"`
	State           CompletionState    `db:"state" json:"state"`
	WeatherSource   WeatherSource      `db:"weather_source" json:"weather_source"`
	RainProbability float64            `db:"rain_probability" json:"rain_probability"`
	DriverFilter    string             `db:"driver_filter" json:"driver_filter,omitempty"`
	Results         []PredictionResult `db:"results" json:"results"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

// IsReplay reports whether the run reproduced final results instead of scoring.
func (r *PredictionRun) IsReplay() bool {
	return r.State == StateAllSessionsDone
}

// Winner returns the driver ranked first, or "" for an empty run.
func (r *PredictionRun) Winner() string {
	for _, res := range r.Results {
		if res.Rank == 1 {
			return res.Driver
		}
	}
	return ""
}
