// Package features builds the fixed-schema feature table scored by the models.
package features

import (
	"sort"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/practice"
)

// Input gathers everything known about a weekend when a run starts.
// Only Weekend and Roster are required.
type Input struct {
	Weekend  *models.RaceWeekend
	Roster   []models.Driver
	Practice map[string]models.PracticeSummary
	// PracticeTrackTemp is the mean track temperature measured in practice.
	PracticeTrackTemp *float64
	Weather           models.WeatherObservation
	Stats             *models.HistoricalStats
	// Grid holds known starting positions keyed by driver code.
	Grid map[string]int
}

// Builder turns partial weekend data into one complete row per driver.
type Builder struct {
	defaults config.DefaultsConfig
	log      *logger.PredictionLogger
}

// NewBuilder creates a feature builder with the configured fallback values.
func NewBuilder(defaults config.DefaultsConfig, log *logger.PredictionLogger) *Builder {
	return &Builder{defaults: defaults, log: log}
}

// Build returns the feature table for the roster. Every row has all fields
// set; values that had to be defaulted are listed in FeatureVector.Fallbacks.
func (b *Builder) Build(in Input) (*Table, error) {
	roster := uniqueRoster(in.Roster)
	if len(roster) == 0 {
		return nil, models.ConfigurationErrorf("no drivers entered for the event")
	}
	if in.Weekend == nil {
		return nil, models.ConfigurationErrorf("no event selected")
	}

	stats := in.Stats
	if stats == nil {
		stats = &models.HistoricalStats{}
	}

	rows := make([]models.FeatureVector, len(roster))
	for i, d := range roster {
		rows[i] = models.FeatureVector{Driver: d.Code, ConstructorID: d.ConstructorID}
	}

	b.setWeekendFields(rows, in)
	b.setHistoryFields(rows, stats)
	b.setPracticeFields(rows, in.Practice)
	setGrid(rows, in.Grid)

	return newTable(rows), nil
}

func (b *Builder) setWeekendFields(rows []models.FeatureVector, in Input) {
	weatherDefaulted := in.Weather.Source == models.WeatherDefault || in.Weather.Source == ""

	// Practice rainfall carries no temperature of its own.
	trackTemp, trackTempFallback := in.Weather.Temperature, weatherDefaulted || in.Weather.Source == models.WeatherPractice
	if in.PracticeTrackTemp != nil {
		trackTemp, trackTempFallback = *in.PracticeTrackTemp, false
	} else if in.Weather.Source == "" {
		trackTemp = b.defaults.TrackTemp
	}

	rain := in.Weather.RainProbability
	if in.Weather.Source == "" {
		rain = b.defaults.RainProbability
	}

	overtake, overtakeFallback := in.Weekend.OvertakeDifficulty, false
	if overtake <= 0 {
		overtake, overtakeFallback = b.defaults.OvertakeDifficulty, true
	}

	// Weekend-wide fallbacks are logged once, not per driver.
	for i := range rows {
		b.assign(&rows[i], models.FeatureTrackTemp, trackTemp, trackTempFallback, "")
		b.assign(&rows[i], models.FeatureRainProbability, rain, weatherDefaulted, "")
		b.assign(&rows[i], models.FeatureOvertakeDifficulty, overtake, overtakeFallback, "")
	}
	if b.log == nil {
		return
	}
	if trackTempFallback {
		b.log.LogFallback("*", string(models.FeatureTrackTemp), trackTemp, "no measured track temperature")
	}
	if weatherDefaulted {
		b.log.LogFallback("*", string(models.FeatureRainProbability), rain, "no forecast")
	}
	if overtakeFallback {
		b.log.LogFallback("*", string(models.FeatureOvertakeDifficulty), overtake, "circuit "+in.Weekend.CircuitID+" not rated")
	}
}

func (b *Builder) setHistoryFields(rows []models.FeatureVector, stats *models.HistoricalStats) {
	for i := range rows {
		row := &rows[i]
		ds, known := stats.Drivers[row.Driver]

		avg, avgFallback := b.defaults.DriverAvgPos, true
		if known && ds.AvgFinish != nil {
			avg, avgFallback = *ds.AvgFinish, false
		}
		b.assign(row, models.FeatureDriverAvgPos, avg, avgFallback, "no classified finish")

		dnf, dnfFallback := b.defaults.DriverDNFRate, true
		if known && ds.DNFRate != nil {
			dnf, dnfFallback = *ds.DNFRate, false
		}
		b.assign(row, models.FeatureDriverDNFRate, dnf, dnfFallback, "no race this season")

		gap, gapFallback := b.defaults.QualiDeltaTeammate, true
		if known && ds.QualiGapToTeammate != nil {
			gap, gapFallback = *ds.QualiGapToTeammate, false
		}
		b.assign(row, models.FeatureQualiDeltaTeammate, gap, gapFallback, "no teammate comparison")

		rel, relFallback := b.defaults.ReliabilityScore, true
		if r, ok := stats.Reliability[row.ConstructorID]; ok {
			rel, relFallback = r, false
		}
		b.assign(row, models.FeatureReliabilityScore, rel, relFallback, "no constructor history")
	}
}

// setPracticeFields fills practice-derived fields. A driver without data gets
// the mean of the drivers in this table who have it, else the configured default.
func (b *Builder) setPracticeFields(rows []models.FeatureVector, summaries map[string]models.PracticeSummary) {
	entered := make(map[string]models.PracticeSummary, len(rows))
	for _, row := range rows {
		if s, ok := summaries[row.Driver]; ok {
			entered[row.Driver] = s
		}
	}

	paceGaps := practice.PaceGaps(entered)
	degradation := make(map[string]float64)
	topSpeed := make(map[string]float64)
	for driver, s := range entered {
		if s.TireDegradation != nil {
			degradation[driver] = *s.TireDegradation
		}
		if s.TopSpeed != nil {
			topSpeed[driver] = *s.TopSpeed
		}
	}

	fields := []struct {
		name     models.FeatureName
		values   map[string]float64
		fallback float64
	}{
		{models.FeatureRacePace, paceGaps, b.defaults.RacePace},
		{models.FeatureTireDegradation, degradation, b.defaults.TireDegradation},
		{models.FeatureTopSpeed, topSpeed, b.defaults.TopSpeed},
	}
	for _, f := range fields {
		fill, reason := f.fallback, "no practice data in the field"
		if len(f.values) > 0 {
			fill, reason = fieldMean(f.values), "no practice data for driver"
		}
		for i := range rows {
			v, ok := f.values[rows[i].Driver]
			if ok {
				b.assign(&rows[i], f.name, v, false, "")
			} else {
				b.assign(&rows[i], f.name, fill, true, reason)
			}
		}
	}
}

// setGrid places drivers with a known slot; the rest share the mid-field placeholder.
func setGrid(rows []models.FeatureVector, grid map[string]int) {
	placeholder := float64(len(rows)+1) / 2
	for i := range rows {
		if pos, ok := grid[rows[i].Driver]; ok && pos > 0 {
			rows[i].GridPosition = float64(pos)
		} else {
			rows[i].GridPosition = placeholder
		}
	}
}

func (b *Builder) assign(row *models.FeatureVector, name models.FeatureName, v float64, fallback bool, reason string) {
	row.Set(name, v)
	if !fallback {
		return
	}
	row.Fallbacks = append(row.Fallbacks, name)
	metrics.RecordFallback(string(name))
	if b.log != nil && reason != "" {
		b.log.LogFallback(row.Driver, string(name), v, reason)
	}
}

// fieldMean averages values in driver order so the result is reproducible.
func fieldMean(values map[string]float64) float64 {
	drivers := make([]string, 0, len(values))
	for d := range values {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	sum := 0.0
	for _, d := range drivers {
		sum += values[d]
	}
	return sum / float64(len(drivers))
}

func uniqueRoster(in []models.Driver) []models.Driver {
	seen := make(map[string]bool, len(in))
	out := make([]models.Driver, 0, len(in))
	for _, d := range in {
		if d.Code == "" || seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		out = append(out, d)
	}
	return out
}
