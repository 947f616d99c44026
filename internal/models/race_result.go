package models

import "strings"

// Driver identifies a driver entered for a weekend
type Driver struct {
	Code          string `json:"code" validate:"required,len=3"`
	Number        int    `json:"number"`
	Name          string `json:"name"`
	ConstructorID string `json:"constructor_id"`
}

// Constructor identifies a team
type Constructor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Reliability float64 `json:"reliability" validate:"gte=0,lte=1"`
}

// RaceResult is one classified (or unclassified) entry of a race or sprint.
type RaceResult struct {
	Season        int     `json:"season"`
	Round         int     `json:"round"`
	Driver        string  `json:"driver"`
	ConstructorID string  `json:"constructor_id"`
	Position      int     `json:"position"`
	Grid          int     `json:"grid"`
	Status        string  `json:"status"`
	Points        float64 `json:"points"`
}

// Finished reports whether the driver took the chequered flag.
// Lapped runners ("+1 Lap", "Lapped") count as finishers.
func (r *RaceResult) Finished() bool {
	s := strings.TrimSpace(r.Status)
	return s == "Finished" || s == "Lapped" || strings.HasPrefix(s, "+")
}

var mechanicalKeywords = []string{
	"engine", "gearbox", "hydraulics", "mechanical", "power unit", "transmission",
	"electrical", "brakes", "suspension", "oil", "water", "fuel", "cooling", "turbo",
}

// MechanicalFailure reports whether the retirement reason is a car failure.
func (r *RaceResult) MechanicalFailure() bool {
	s := strings.ToLower(r.Status)
	for _, kw := range mechanicalKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// QualifyingResult is one entry of a qualifying classification.
type QualifyingResult struct {
	Driver        string  `json:"driver"`
	ConstructorID string  `json:"constructor_id"`
	Position      int     `json:"position"`
	BestLap       float64 `json:"best_lap"` // seconds, 0 when no time set
}

// DriverStats holds a driver's historical form. Nil means no history.
type DriverStats struct {
	AvgFinish          *float64 `json:"avg_finish,omitempty"`
	DNFRate            *float64 `json:"dnf_rate,omitempty"`
	QualiGapToTeammate *float64 `json:"quali_gap_to_teammate,omitempty"`
}

// HistoricalStats is the output of the historical stats provider for one weekend.
type HistoricalStats struct {
	Drivers     map[string]DriverStats `json:"drivers"`
	Reliability map[string]float64     `json:"reliability"`
}
