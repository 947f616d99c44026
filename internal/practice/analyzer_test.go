package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/models"
)

func testAnalyzer() *Analyzer {
	return NewAnalyzer(config.PracticeConfig{MinStintLaps: 5, QuickLapThreshold: 1.07})
}

// stint builds consecutive laps starting at lap `from` with the given times.
func stint(driver string, number, from int, times ...float64) []models.Lap {
	laps := make([]models.Lap, len(times))
	for i, t := range times {
		laps[i] = models.Lap{Driver: driver, LapNumber: from + i, Stint: number, LapTime: t, SpeedTrap: 300}
	}
	return laps
}

func TestAnalyzeLongRun(t *testing.T) {
	laps := stint("VER", 1, 1, 90.0, 90.2, 90.4, 90.6, 90.8)
	laps[2].SpeedTrap = 320

	summaries := testAnalyzer().Analyze(&models.PracticeSession{Laps: laps})
	require.Contains(t, summaries, "VER")

	s := summaries["VER"]
	require.NotNil(t, s.RacePace)
	require.NotNil(t, s.TireDegradation)
	require.NotNil(t, s.TopSpeed)
	assert.Equal(t, 1, s.LongRuns)
	assert.InDelta(t, 90.4, *s.RacePace, 1e-9)
	assert.InDelta(t, 0.2, *s.TireDegradation, 1e-9)
	assert.Equal(t, 320.0, *s.TopSpeed)
}

func TestAnalyzeExcludesSlowAndPitLaps(t *testing.T) {
	laps := stint("NOR", 1, 1, 91.0, 91.0, 120.0, 91.0, 91.0, 91.0, 91.0)
	laps = append(laps, models.Lap{Driver: "NOR", LapNumber: 8, Stint: 1, LapTime: 80.0, PitIn: true})

	s := testAnalyzer().Analyze(&models.PracticeSession{Laps: laps})["NOR"]

	require.NotNil(t, s.RacePace)
	assert.InDelta(t, 91.0, *s.RacePace, 1e-9, "the cool-down lap and the in-lap are ignored")
	assert.InDelta(t, 0.0, *s.TireDegradation, 1e-9)
}

func TestAnalyzeAveragesStints(t *testing.T) {
	laps := stint("LEC", 1, 1, 90, 90, 90, 90, 90)
	laps = append(laps, stint("LEC", 2, 10, 91, 91.5, 92, 92.5, 93)...)
	laps = append(laps, stint("LEC", 3, 20, 90.5, 90.5)...)

	s := testAnalyzer().Analyze(&models.PracticeSession{Laps: laps})["LEC"]

	assert.Equal(t, 2, s.LongRuns)
	assert.InDelta(t, 91.0, *s.RacePace, 1e-9)
	assert.InDelta(t, 0.25, *s.TireDegradation, 1e-9)
}

func TestAnalyzeShortRunsOnly(t *testing.T) {
	laps := stint("PIA", 1, 1, 89.0, 89.1)
	s := testAnalyzer().Analyze(&models.PracticeSession{Laps: laps})["PIA"]

	assert.Nil(t, s.RacePace)
	assert.Nil(t, s.TireDegradation)
	require.NotNil(t, s.TopSpeed)
	assert.Zero(t, s.LongRuns)
}

func TestAnalyzeNilSession(t *testing.T) {
	assert.Empty(t, testAnalyzer().Analyze(nil))
}

func TestNewAnalyzerClampsConfig(t *testing.T) {
	a := NewAnalyzer(config.PracticeConfig{})
	assert.Equal(t, 2, a.minStintLaps)
	assert.Equal(t, 1.07, a.quickLapThreshold)
}

func TestPaceGaps(t *testing.T) {
	pace := func(v float64) *float64 { return &v }
	gaps := PaceGaps(map[string]models.PracticeSummary{
		"VER": {Driver: "VER", RacePace: pace(90.4)},
		"NOR": {Driver: "NOR", RacePace: pace(90.1)},
		"SAR": {Driver: "SAR"},
	})

	assert.Len(t, gaps, 2)
	assert.InDelta(t, 0.3, gaps["VER"], 1e-9)
	assert.InDelta(t, 0.0, gaps["NOR"], 1e-9)
	assert.NotContains(t, gaps, "SAR")

	assert.Empty(t, PaceGaps(nil))
}
