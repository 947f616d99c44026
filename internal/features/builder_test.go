package features

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

func testDefaults() config.DefaultsConfig {
	return config.DefaultsConfig{
		TrackTemp:          25,
		OvertakeDifficulty: 5,
		DriverAvgPos:       10.5,
		DriverDNFRate:      0.1,
		QualiDeltaTeammate: 0,
		ReliabilityScore:   0.95,
		RacePace:           1.0,
		TireDegradation:    0.05,
		TopSpeed:           310,
		RainProbability:    0,
	}
}

func newTestBuilder() *Builder {
	return NewBuilder(testDefaults(), logger.NewPredictionLogger(logger.Discard()))
}

func ptr(v float64) *float64 { return &v }

func roster(codes ...string) []models.Driver {
	out := make([]models.Driver, len(codes))
	for i, c := range codes {
		out[i] = models.Driver{Code: c, ConstructorID: "team_" + c}
	}
	return out
}

func silverstone() *models.RaceWeekend {
	return &models.RaceWeekend{Season: 2024, Round: 12, CircuitID: "silverstone", OvertakeDifficulty: 3}
}

func overrideWeather(rain float64) models.WeatherObservation {
	return models.WeatherObservation{RainProbability: rain, Temperature: 25, Source: models.WeatherOverride}
}

func TestBuildOneRowPerDriver(t *testing.T) {
	in := Input{
		Weekend: silverstone(),
		Roster:  append(roster("VER", "NOR", "LEC"), models.Driver{Code: "NOR", ConstructorID: "dup"}),
		Weather: overrideWeather(0.2),
	}

	table, err := newTestBuilder().Build(in)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"LEC", "NOR", "VER"}, table.Drivers())
	nor, ok := table.Row("NOR")
	require.True(t, ok)
	assert.Equal(t, "team_NOR", nor.ConstructorID)
}

func TestBuildEmptyRoster(t *testing.T) {
	_, err := newTestBuilder().Build(Input{Weekend: silverstone()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestBuildWithoutPracticeUsesDefaults(t *testing.T) {
	table, err := newTestBuilder().Build(Input{
		Weekend: silverstone(),
		Roster:  roster("VER", "NOR"),
		Weather: overrideWeather(0),
	})
	require.NoError(t, err)

	for _, row := range table.Rows() {
		assert.Equal(t, 1.0, row.RacePace)
		assert.Equal(t, 0.05, row.TireDegradation)
		assert.Equal(t, 310.0, row.TopSpeed)
		assert.True(t, row.UsedFallback(models.FeatureRacePace))
		assert.True(t, row.UsedFallback(models.FeatureTireDegradation))
		assert.True(t, row.UsedFallback(models.FeatureTopSpeed))
	}
}

func TestBuildMissingPracticeForOneDriver(t *testing.T) {
	in := Input{
		Weekend: silverstone(),
		Roster:  roster("VER", "NOR", "BOR"),
		Weather: overrideWeather(0.0),
		Practice: map[string]models.PracticeSummary{
			"VER": {Driver: "VER", RacePace: ptr(90.2), TireDegradation: ptr(0.04), TopSpeed: ptr(318)},
			"NOR": {Driver: "NOR", RacePace: ptr(90.0), TireDegradation: ptr(0.08), TopSpeed: ptr(322)},
		},
	}

	table, err := newTestBuilder().Build(in)
	require.NoError(t, err)

	ver, _ := table.Row("VER")
	nor, _ := table.Row("NOR")
	bor, _ := table.Row("BOR")

	assert.InDelta(t, 0.2, ver.RacePace, 1e-9)
	assert.InDelta(t, 0.0, nor.RacePace, 1e-9)
	assert.Empty(t, practiceFallbacks(ver))
	assert.Empty(t, practiceFallbacks(nor))

	assert.InDelta(t, 0.1, bor.RacePace, 1e-9, "mean gap of the drivers with data")
	assert.InDelta(t, 0.06, bor.TireDegradation, 1e-9)
	assert.InDelta(t, 320.0, bor.TopSpeed, 1e-9)
	assert.ElementsMatch(t, []models.FeatureName{models.FeatureRacePace, models.FeatureTireDegradation, models.FeatureTopSpeed}, practiceFallbacks(bor))
}

func TestBuildIgnoresPracticeOfDriversNotEntered(t *testing.T) {
	in := Input{
		Weekend: silverstone(),
		Roster:  roster("VER", "NOR"),
		Weather: overrideWeather(0),
		Practice: map[string]models.PracticeSummary{
			"VER": {Driver: "VER", RacePace: ptr(91)},
			"NOR": {Driver: "NOR", RacePace: ptr(92)},
			"RES": {Driver: "RES", RacePace: ptr(85)},
		},
	}

	table, err := newTestBuilder().Build(in)
	require.NoError(t, err)

	ver, _ := table.Row("VER")
	assert.InDelta(t, 0.0, ver.RacePace, 1e-9, "reserve driver is not in the field")
}

func TestBuildRookieUsesPopulationDefaults(t *testing.T) {
	stats := &models.HistoricalStats{
		Drivers: map[string]models.DriverStats{
			"VER": {AvgFinish: ptr(1.8), DNFRate: ptr(0.05), QualiGapToTeammate: ptr(-0.4)},
		},
		Reliability: map[string]float64{"team_VER": 0.9},
	}

	table, err := newTestBuilder().Build(Input{Weekend: silverstone(), Roster: roster("VER", "ANT"), Stats: stats, Weather: overrideWeather(0)})
	require.NoError(t, err)

	ver, _ := table.Row("VER")
	assert.Equal(t, 1.8, ver.DriverAvgPos)
	assert.Equal(t, 0.05, ver.DriverDNFRate)
	assert.Equal(t, -0.4, ver.QualiDeltaTeammate)
	assert.Equal(t, 0.9, ver.ReliabilityScore)
	assert.False(t, ver.UsedFallback(models.FeatureDriverAvgPos))

	ant, _ := table.Row("ANT")
	assert.Equal(t, 10.5, ant.DriverAvgPos)
	assert.Equal(t, 0.1, ant.DriverDNFRate)
	assert.Equal(t, 0.0, ant.QualiDeltaTeammate)
	assert.Equal(t, 0.95, ant.ReliabilityScore)
	assert.True(t, ant.UsedFallback(models.FeatureDriverAvgPos))
	assert.True(t, ant.UsedFallback(models.FeatureReliabilityScore))
}

func TestBuildWeatherAndTrack(t *testing.T) {
	t.Run("override appears in every row", func(t *testing.T) {
		table, err := newTestBuilder().Build(Input{Weekend: silverstone(), Roster: roster("VER", "NOR"), Weather: overrideWeather(0.8)})
		require.NoError(t, err)
		for _, row := range table.Rows() {
			assert.Equal(t, 0.8, row.RainProbability)
			assert.Equal(t, 3.0, row.OvertakeDifficulty)
			assert.False(t, row.UsedFallback(models.FeatureRainProbability))
		}
	})

	t.Run("practice track temperature wins", func(t *testing.T) {
		table, err := newTestBuilder().Build(Input{
			Weekend:           silverstone(),
			Roster:            roster("VER"),
			Weather:           models.WeatherObservation{Temperature: 18, Source: models.WeatherLive},
			PracticeTrackTemp: ptr(37.5),
		})
		require.NoError(t, err)
		row, _ := table.Row("VER")
		assert.Equal(t, 37.5, row.TrackTemp)
	})

	t.Run("practice rainfall without track temperature", func(t *testing.T) {
		table, err := newTestBuilder().Build(Input{
			Weekend: silverstone(),
			Roster:  roster("VER"),
			Weather: models.WeatherObservation{RainProbability: 0.4, Temperature: 25, Source: models.WeatherPractice},
		})
		require.NoError(t, err)
		row, _ := table.Row("VER")
		assert.Equal(t, 0.4, row.RainProbability)
		assert.False(t, row.UsedFallback(models.FeatureRainProbability))
		assert.True(t, row.UsedFallback(models.FeatureTrackTemp))
	})

	t.Run("no weather and unrated circuit", func(t *testing.T) {
		weekend := &models.RaceWeekend{Season: 2026, Round: 1, CircuitID: "madring"}
		table, err := newTestBuilder().Build(Input{Weekend: weekend, Roster: roster("VER")})
		require.NoError(t, err)
		row, _ := table.Row("VER")
		assert.Equal(t, 25.0, row.TrackTemp)
		assert.Equal(t, 0.0, row.RainProbability)
		assert.Equal(t, 5.0, row.OvertakeDifficulty)
		assert.True(t, row.UsedFallback(models.FeatureTrackTemp))
		assert.True(t, row.UsedFallback(models.FeatureOvertakeDifficulty))
	})
}

func TestBuildGridPosition(t *testing.T) {
	in := Input{
		Weekend: silverstone(),
		Roster:  roster("VER", "NOR", "LEC", "HAM"),
		Weather: overrideWeather(0),
	}

	table, err := newTestBuilder().Build(in)
	require.NoError(t, err)
	for _, row := range table.Rows() {
		assert.Equal(t, 2.5, row.GridPosition)
	}

	in.Grid = map[string]int{"VER": 2, "NOR": 1, "LEC": 3}
	table, err = newTestBuilder().Build(in)
	require.NoError(t, err)
	nor, _ := table.Row("NOR")
	ham, _ := table.Row("HAM")
	assert.Equal(t, 1.0, nor.GridPosition)
	assert.Equal(t, 2.5, ham.GridPosition)
}

func TestBuildIsDeterministic(t *testing.T) {
	in := Input{
		Weekend: silverstone(),
		Roster:  roster("VER", "NOR", "BOR", "LEC", "PIA"),
		Weather: overrideWeather(0.3),
		Practice: map[string]models.PracticeSummary{
			"VER": {RacePace: ptr(90.2), TireDegradation: ptr(0.04), TopSpeed: ptr(318)},
			"NOR": {RacePace: ptr(90.0), TireDegradation: ptr(0.08), TopSpeed: ptr(322)},
			"PIA": {RacePace: ptr(90.1), TireDegradation: ptr(0.07)},
		},
		Grid: map[string]int{"NOR": 1},
	}

	first, err := newTestBuilder().Build(in)
	require.NoError(t, err)
	want, err := json.Marshal(first.Rows())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := newTestBuilder().Build(in)
		require.NoError(t, err)
		got, err := json.Marshal(again.Rows())
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestTableRestrict(t *testing.T) {
	table := NewTable([]models.FeatureVector{{Driver: "VER"}, {Driver: "NOR"}, {Driver: "LEC"}, {Driver: "VER", GridPosition: 9}})

	assert.Equal(t, 3, table.Len())
	ver, _ := table.Row("VER")
	assert.Zero(t, ver.GridPosition)

	sub := table.Restrict([]string{"VER", "LEC", "XXX"})
	assert.Equal(t, []string{"LEC", "VER"}, sub.Drivers())
	_, ok := sub.Row("NOR")
	assert.False(t, ok)
	assert.Equal(t, 0, sub.FallbackCount())
}

func practiceFallbacks(row *models.FeatureVector) []models.FeatureName {
	var out []models.FeatureName
	for _, f := range row.Fallbacks {
		switch f {
		case models.FeatureRacePace, models.FeatureTireDegradation, models.FeatureTopSpeed:
			out = append(out, f)
		}
	}
	return out
}
