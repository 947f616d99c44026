// Package practice condenses practice-session laps into per-driver pace figures.
package practice

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/models"
)

// Analyzer extracts long-run pace, tyre degradation and top speed from practice laps.
type Analyzer struct {
	minStintLaps      int
	quickLapThreshold float64
}

// NewAnalyzer creates an analyzer from the practice configuration.
func NewAnalyzer(cfg config.PracticeConfig) *Analyzer {
	minLaps := cfg.MinStintLaps
	if minLaps < 2 {
		minLaps = 2
	}
	threshold := cfg.QuickLapThreshold
	if threshold <= 1 {
		threshold = 1.07
	}
	return &Analyzer{minStintLaps: minLaps, quickLapThreshold: threshold}
}

// Analyze returns one summary per driver that set a lap in the session.
// A nil session yields an empty map.
func (a *Analyzer) Analyze(session *models.PracticeSession) map[string]models.PracticeSummary {
	out := make(map[string]models.PracticeSummary)
	if session == nil {
		return out
	}

	byDriver := make(map[string][]models.Lap)
	for _, lap := range session.Laps {
		byDriver[lap.Driver] = append(byDriver[lap.Driver], lap)
	}
	for driver, laps := range byDriver {
		out[driver] = a.summarize(driver, laps)
	}
	return out
}

func (a *Analyzer) summarize(driver string, laps []models.Lap) models.PracticeSummary {
	summary := models.PracticeSummary{Driver: driver}

	topSpeed := 0.0
	fastest := math.Inf(1)
	for _, lap := range laps {
		if lap.SpeedTrap > topSpeed {
			topSpeed = lap.SpeedTrap
		}
		if representative(lap) && lap.LapTime < fastest {
			fastest = lap.LapTime
		}
	}
	if topSpeed > 0 {
		summary.TopSpeed = &topSpeed
	}
	if math.IsInf(fastest, 1) {
		return summary
	}

	cutoff := fastest * a.quickLapThreshold
	stints := make(map[int][]models.Lap)
	for _, lap := range laps {
		if representative(lap) && lap.LapTime <= cutoff {
			stints[lap.Stint] = append(stints[lap.Stint], lap)
		}
	}

	numbers := make([]int, 0, len(stints))
	for n := range stints {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var means, slopes []float64
	for _, n := range numbers {
		run := stints[n]
		if len(run) < a.minStintLaps {
			continue
		}
		sort.Slice(run, func(i, j int) bool { return run[i].LapNumber < run[j].LapNumber })

		xs := make([]float64, len(run))
		ys := make([]float64, len(run))
		for i, lap := range run {
			xs[i] = float64(lap.LapNumber)
			ys[i] = lap.LapTime
		}
		means = append(means, stat.Mean(ys, nil))
		_, beta := stat.LinearRegression(xs, ys, nil, false)
		slopes = append(slopes, beta)
	}

	summary.LongRuns = len(means)
	if len(means) == 0 {
		return summary
	}
	pace := stat.Mean(means, nil)
	degradation := stat.Mean(slopes, nil)
	summary.RacePace = &pace
	summary.TireDegradation = &degradation
	return summary
}

// representative reports whether a lap was timed at racing speed out of the pit lane.
func representative(lap models.Lap) bool {
	return lap.LapTime > 0 && !lap.PitIn && !lap.PitOut
}

// PaceGaps converts absolute long-run pace to the gap to the quickest driver.
// Drivers without a pace are omitted.
func PaceGaps(summaries map[string]models.PracticeSummary) map[string]float64 {
	best := math.Inf(1)
	for _, s := range summaries {
		if s.RacePace != nil && *s.RacePace < best {
			best = *s.RacePace
		}
	}
	gaps := make(map[string]float64)
	if math.IsInf(best, 1) {
		return gaps
	}
	for driver, s := range summaries {
		if s.RacePace != nil {
			gaps[driver] = *s.RacePace - best
		}
	}
	return gaps
}
