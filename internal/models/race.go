package models

import (
	"fmt"
	"time"
)

// WeekendFormat distinguishes conventional and sprint weekends.
type WeekendFormat string

const (
	FormatConventional WeekendFormat = "conventional"
	FormatSprint       WeekendFormat = "sprint"
)

// SessionType identifies an on-track session.
type SessionType string

const (
	SessionPractice   SessionType = "practice"
	SessionQualifying SessionType = "qualifying"
	SessionSprint     SessionType = "sprint"
	SessionRace       SessionType = "race"
)

// Label returns the human readable session name used in reports.
func (s SessionType) Label() string {
	switch s {
	case SessionPractice:
		return "Practice"
	case SessionQualifying:
		return "Quali"
	case SessionSprint:
		return "Sprint"
	case SessionRace:
		return "Race"
	default:
		return string(s)
	}
}

// CompletionState is the progress of a weekend at the moment a run starts.
type CompletionState string

const (
	StateNoSessionsYet   CompletionState = "no_sessions_yet"
	StateQualifyingDone  CompletionState = "qualifying_done"
	StateSprintDone      CompletionState = "sprint_done"
	StateAllSessionsDone CompletionState = "all_sessions_done"
)

// RaceDuration bounds how long after lights out a race is considered running.
const RaceDuration = 3 * time.Hour

// Session is a scheduled on-track session.
type Session struct {
	Type  SessionType `json:"type"`
	Name  string      `json:"name"`
	Start time.Time   `json:"start"`
}

// RaceWeekend represents a single championship round
type RaceWeekend struct {
	Season             int             `json:"season" validate:"required,gt=1949"`
	Round              int             `json:"round" validate:"required,gt=0"`
	Name               string          `json:"name" validate:"required"`
	CircuitID          string          `json:"circuit_id"`
	CircuitName        string          `json:"circuit_name"`
	Locality           string          `json:"locality"`
	Country            string          `json:"country"`
	Latitude           float64         `json:"latitude"`
	Longitude          float64         `json:"longitude"`
	Format             WeekendFormat   `json:"format"`
	OvertakeDifficulty float64         `json:"overtake_difficulty"`
	Sessions           []Session       `json:"sessions"`
	RaceStart          time.Time       `json:"race_start"`
	State              CompletionState `json:"state,omitempty"`
}

// IsSprintWeekend reports whether the weekend runs a sprint race.
func (w *RaceWeekend) IsSprintWeekend() bool {
	return w.Format == FormatSprint
}

// RaceEnd returns the instant after which the race is treated as finished.
func (w *RaceWeekend) RaceEnd() time.Time {
	return w.RaceStart.Add(RaceDuration)
}

// SessionStart returns the start of the first session of the given type.
func (w *RaceWeekend) SessionStart(t SessionType) (time.Time, bool) {
	for _, s := range w.Sessions {
		if s.Type == t {
			return s.Start, true
		}
	}
	if t == SessionRace && !w.RaceStart.IsZero() {
		return w.RaceStart, true
	}
	return time.Time{}, false
}

// String labels the weekend in logs and errors.
func (w *RaceWeekend) String() string {
	return fmt.Sprintf("%d R%d %s", w.Season, w.Round, w.Name)
}
