package models

// Lap is a single timed lap from a practice session.
type Lap struct {
	Driver    string  `json:"driver"`
	LapNumber int     `json:"lap_number"`
	Stint     int     `json:"stint"`
	LapTime   float64 `json:"lap_time"` // seconds, 0 when not timed
	SpeedTrap float64 `json:"speed_trap"`
	PitIn     bool    `json:"pit_in"`
	PitOut    bool    `json:"pit_out"`
	Compound  string  `json:"compound,omitempty"`
}

// PracticeSession is the telemetry of one practice session.
type PracticeSession struct {
	Name             string   `json:"name"`
	Laps             []Lap    `json:"laps"`
	TrackTemperature *float64 `json:"track_temperature,omitempty"`
	RainfallFraction *float64 `json:"rainfall_fraction,omitempty"`
}

// PracticeSummary condenses a driver's practice running.
// A nil field means the value could not be derived.
type PracticeSummary struct {
	Driver          string   `json:"driver"`
	RacePace        *float64 `json:"race_pace,omitempty"`
	TireDegradation *float64 `json:"tire_degradation,omitempty"`
	TopSpeed        *float64 `json:"top_speed,omitempty"`
	LongRuns        int      `json:"long_runs"`
}
