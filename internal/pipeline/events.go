// Package pipeline selects the event to predict, runs the matching model and ranks the field.
package pipeline

import (
	"sort"
	"time"

	"github.com/yourusername/f1-predictor/internal/models"
)

// NextEvent returns the first weekend by race start whose race has not
// finished at now. It reports false when the calendar holds no such weekend.
func NextEvent(calendar []models.RaceWeekend, now time.Time) (models.RaceWeekend, bool) {
	ordered := make([]models.RaceWeekend, len(calendar))
	copy(ordered, calendar)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RaceStart.Before(ordered[j].RaceStart)
	})

	for _, w := range ordered {
		if w.RaceEnd().After(now) {
			return w, true
		}
	}
	return models.RaceWeekend{}, false
}

// Progress records which classifications of a weekend are published.
type Progress struct {
	Qualifying bool
	Sprint     bool
	Race       bool
}

// DetermineState maps published classifications to a completion state.
func DetermineState(p Progress) models.CompletionState {
	switch {
	case p.Race:
		return models.StateAllSessionsDone
	case p.Sprint:
		return models.StateSprintDone
	case p.Qualifying:
		return models.StateQualifyingDone
	default:
		return models.StateNoSessionsYet
	}
}

// TargetSession returns the session to predict for a weekend state. It
// reports false when every session is complete and nothing is predicted.
func TargetSession(state models.CompletionState, format models.WeekendFormat) (models.SessionType, bool) {
	switch state {
	case models.StateNoSessionsYet:
		return models.SessionQualifying, true
	case models.StateQualifyingDone:
		if format == models.FormatSprint {
			return models.SessionSprint, true
		}
		return models.SessionRace, true
	case models.StateSprintDone:
		return models.SessionRace, true
	default:
		return "", false
	}
}
