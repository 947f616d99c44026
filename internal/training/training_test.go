package training

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/features"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/practice"
)

type historySource struct {
	calendar   []models.RaceWeekend
	qualifying map[int][]models.QualifyingResult
	sprint     map[int][]models.RaceResult
	race       map[int][]models.RaceResult
	practice   map[int]*models.PracticeSession
}

func (h *historySource) Calendar(context.Context, int) ([]models.RaceWeekend, error) {
	return h.calendar, nil
}

func (h *historySource) Qualifying(_ context.Context, _, round int) ([]models.QualifyingResult, error) {
	return h.qualifying[round], nil
}

func (h *historySource) Sprint(_ context.Context, _, round int) ([]models.RaceResult, error) {
	return h.sprint[round], nil
}

func (h *historySource) Race(_ context.Context, _, round int) ([]models.RaceResult, error) {
	return h.race[round], nil
}

func (h *historySource) SeasonResults(context.Context, int, int) ([]models.RaceResult, error) {
	return nil, errors.New("not used")
}

func (h *historySource) Practice(_ context.Context, w *models.RaceWeekend) (*models.PracticeSession, error) {
	if fp, ok := h.practice[w.Round]; ok {
		return fp, nil
	}
	return nil, models.DataUnavailableErrorf("no practice for round %d", w.Round)
}

func qualifying(codes ...string) []models.QualifyingResult {
	out := make([]models.QualifyingResult, len(codes))
	for i, c := range codes {
		out[i] = models.QualifyingResult{Driver: c, ConstructorID: "team_" + c, Position: i + 1, BestLap: 90 + float64(i)/10}
	}
	return out
}

func classified(codes ...string) []models.RaceResult {
	out := make([]models.RaceResult, len(codes))
	for i, c := range codes {
		out[i] = models.RaceResult{Driver: c, ConstructorID: "team_" + c, Position: i + 1, Grid: i + 1, Status: "Finished"}
	}
	return out
}

func testDefaults() config.DefaultsConfig {
	return config.DefaultsConfig{TrackTemp: 25, OvertakeDifficulty: 5, DriverAvgPos: 10.5, DriverDNFRate: 0.1, ReliabilityScore: 0.95, RacePace: 1, TireDegradation: 0.05, TopSpeed: 310, RainProbability: 0.1}
}

func newTestBuilder(source *historySource) *Builder {
	base := logger.Discard()
	return NewBuilder(
		source,
		practice.NewAnalyzer(config.PracticeConfig{MinStintLaps: 5, QuickLapThreshold: 1.07}),
		features.NewBuilder(testDefaults(), logger.NewPredictionLogger(base)),
		config.StatsConfig{AvgFinishWindow: 5, ReliabilityWindow: 20},
		testDefaults(),
		logger.NewMLLogger(base),
	)
}

func season2024() *historySource {
	rain := 0.4
	race2 := classified("NOR", "VER", "LEC")
	race2[2] = models.RaceResult{Driver: "LEC", ConstructorID: "team_LEC", Grid: 2, Status: "Engine"}

	return &historySource{
		calendar: []models.RaceWeekend{
			{Season: 2024, Round: 1, Name: "Bahrain Grand Prix", OvertakeDifficulty: 3, Format: models.FormatConventional, RaceStart: time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)},
			{Season: 2024, Round: 2, Name: "Chinese Grand Prix", OvertakeDifficulty: 2, Format: models.FormatSprint, RaceStart: time.Date(2024, 4, 21, 7, 0, 0, 0, time.UTC)},
			{Season: 2024, Round: 3, Name: "Miami Grand Prix", Format: models.FormatSprint, RaceStart: time.Date(2030, 5, 5, 20, 0, 0, 0, time.UTC)},
		},
		qualifying: map[int][]models.QualifyingResult{
			1: qualifying("VER", "LEC", "NOR"),
			2: qualifying("VER", "NOR", "LEC"),
		},
		sprint: map[int][]models.RaceResult{
			2: classified("LEC", "VER", "NOR"),
		},
		race: map[int][]models.RaceResult{
			1: classified("VER", "LEC", "NOR"),
			2: race2,
		},
		practice: map[int]*models.PracticeSession{
			2: {Name: "Practice 1", RainfallFraction: &rain},
		},
	}
}

func find(rows []Row, round int, session models.SessionType, driver string) Row {
	for _, r := range rows {
		if r.Round == round && r.Session == string(session) && r.Driver == driver {
			return r
		}
	}
	return Row{}
}

func TestBuildLabelsCompletedWeekends(t *testing.T) {
	rows, err := newTestBuilder(season2024()).Build(context.Background(), []int{2024})
	require.NoError(t, err)

	// Round 1: qualifying + race, round 2: qualifying + sprint + race, round 3 not run.
	assert.Len(t, rows, 15)
	for _, r := range rows {
		assert.NotEqual(t, 3, r.Round)
		assert.Equal(t, 3, r.FieldSize)
	}

	winner := find(rows, 1, models.SessionRace, "VER")
	assert.Equal(t, 1, winner.Position)
	assert.Equal(t, 3.0, winner.Target)
	assert.Equal(t, 10.5, winner.DriverAvgPos, "no history before the first round")
	assert.Equal(t, 1.0, winner.GridPosition)

	retired := find(rows, 2, models.SessionRace, "LEC")
	assert.Equal(t, 0, retired.Position)
	assert.Equal(t, 0.0, retired.Target)
	assert.Equal(t, 2.0, retired.DriverAvgPos, "stats use the earlier rounds")
	assert.Equal(t, 1.0, retired.GridPosition, "sprint result sets the race grid")

	sprinter := find(rows, 2, models.SessionSprint, "NOR")
	assert.Equal(t, 2.0, sprinter.GridPosition)
	assert.Equal(t, 1.0, sprinter.Target)
	assert.Equal(t, 0.4, sprinter.RainProbability)
	assert.Equal(t, "practice", sprinter.WeatherSource, "rainfall measured in practice")
	assert.Equal(t, "default", winner.WeatherSource, "no practice data for round 1")

	quali := find(rows, 2, models.SessionQualifying, "VER")
	assert.Equal(t, 2.0, quali.GridPosition, "qualifying rows carry the mid-field placeholder")
	assert.Equal(t, 3.0, quali.Target)
}

func TestQualifyingRowsUsePreviousRoundGaps(t *testing.T) {
	teammates := func(ver, per float64) []models.QualifyingResult {
		return []models.QualifyingResult{
			{Driver: "VER", ConstructorID: "red_bull", Position: 1, BestLap: ver},
			{Driver: "PER", ConstructorID: "red_bull", Position: 2, BestLap: per},
		}
	}
	source := &historySource{
		calendar: []models.RaceWeekend{
			{Season: 2024, Round: 1, Name: "Bahrain Grand Prix", Format: models.FormatConventional},
			{Season: 2024, Round: 2, Name: "Saudi Arabian Grand Prix", Format: models.FormatConventional},
		},
		qualifying: map[int][]models.QualifyingResult{
			1: teammates(90.0, 90.5),
			2: teammates(88.0, 89.0),
		},
		race: map[int][]models.RaceResult{
			1: classified("VER", "PER"),
			2: classified("VER", "PER"),
		},
	}

	rows, err := newTestBuilder(source).Build(context.Background(), []int{2024})
	require.NoError(t, err)

	first := find(rows, 1, models.SessionQualifying, "VER")
	assert.Equal(t, 0.0, first.QualiDeltaTeammate, "no earlier qualifying to compare")

	quali := find(rows, 2, models.SessionQualifying, "VER")
	assert.InDelta(t, -0.5, quali.QualiDeltaTeammate, 1e-9, "gap from round 1")

	race := find(rows, 2, models.SessionRace, "VER")
	assert.InDelta(t, -1.0, race.QualiDeltaTeammate, 1e-9, "gap from the same weekend")
}

func TestDatasetsGroupBySession(t *testing.T) {
	rows, err := newTestBuilder(season2024()).Build(context.Background(), []int{2024})
	require.NoError(t, err)

	sets := Datasets(rows)
	require.Len(t, sets, 3)
	assert.Len(t, sets[models.SessionQualifying].Rows, 6)
	assert.Len(t, sets[models.SessionSprint].Rows, 3)
	assert.Len(t, sets[models.SessionRace].Rows, 6)
	assert.Equal(t, []int{2024}, sets[models.SessionRace].Seasons)
	for _, ds := range sets {
		assert.Equal(t, len(ds.Rows), len(ds.Targets))
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBuilder(season2024()).Build(ctx, []int{2024})
	assert.ErrorIs(t, err, context.Canceled)
}

func sampleRows() []Row {
	return []Row{
		{Season: 2023, Round: 4, Session: "race", Driver: "VER", Constructor: "red_bull", TrackTemp: 31.5, OvertakeDifficulty: 3, DriverAvgPos: 1.25,
			DriverDNFRate: 0.05, QualiDeltaTeammate: -0.312, ReliabilityScore: 0.95, GridPosition: 1, RacePace: 0, TireDegradation: 0.042, TopSpeed: 327.4,
			RainProbability: 0.1, WeatherSource: "default", Position: 1, FieldSize: 20, Target: 20},
		{Season: 2023, Round: 4, Session: "qualifying", Driver: "SAR", Constructor: "williams", TrackTemp: 31.5, OvertakeDifficulty: 3, DriverAvgPos: 10.5,
			DriverDNFRate: 0.1, ReliabilityScore: 0.9, GridPosition: 10.5, RacePace: 1.6, TireDegradation: 0.08, TopSpeed: 331,
			RainProbability: 0.1, WeatherSource: "practice", Position: 19, FieldSize: 20, Target: 2},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(header, "Season,Round,Session,Driver,Constructor,TrackTemp"))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func TestSaveAndLoadCSV(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, SaveCSV(a, sampleRows()[:1]))
	require.NoError(t, SaveCSV(b, sampleRows()[1:]))

	rows, err := LoadCSV(a, b)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)

	_, err = LoadCSV(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestReadCSVDerivesTarget(t *testing.T) {
	in := "Season,Round,Session,Driver,TrackTemp,OvertakeDifficulty,DriverAvgPos,DriverDNFRate,QualiDeltaTeammate,ReliabilityScore,GridPosition,RacePace,TireDegradation,TopSpeed,RainProbability,Position,FieldSize\n" +
		"2022,1,sprint,LEC,30,3,4,0.1,0,0.9,2,0.2,0.05,320,0,3,20\n"

	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 18.0, rows[0].Target)
	assert.Equal(t, "", rows[0].Constructor)
	assert.Equal(t, 320.0, rows[0].TopSpeed)
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing feature column", "Season,Round,Session,Driver,Target\n2022,1,race,LEC,3\n"},
		{"no label", "Season,Round,Session,Driver,TrackTemp,OvertakeDifficulty,DriverAvgPos,DriverDNFRate,QualiDeltaTeammate,ReliabilityScore,GridPosition,RacePace,TireDegradation,TopSpeed,RainProbability\n" +
			"2022,1,race,LEC,30,3,4,0.1,0,0.9,2,0.2,0.05,320,0\n"},
		{"unknown session", "Season,Round,Session,Driver,TrackTemp,OvertakeDifficulty,DriverAvgPos,DriverDNFRate,QualiDeltaTeammate,ReliabilityScore,GridPosition,RacePace,TireDegradation,TopSpeed,RainProbability,Target\n" +
			"2022,1,practice,LEC,30,3,4,0.1,0,0.9,2,0.2,0.05,320,0,3\n"},
		{"non-numeric feature", "Season,Round,Session,Driver,TrackTemp,OvertakeDifficulty,DriverAvgPos,DriverDNFRate,QualiDeltaTeammate,ReliabilityScore,GridPosition,RacePace,TireDegradation,TopSpeed,RainProbability,Target\n" +
			"2022,1,race,LEC,hot,3,4,0.1,0,0.9,2,0.2,0.05,320,0,3\n"},
		{"non-integer round", "Season,Round,Session,Driver,TrackTemp,OvertakeDifficulty,DriverAvgPos,DriverDNFRate,QualiDeltaTeammate,ReliabilityScore,GridPosition,RacePace,TireDegradation,TopSpeed,RainProbability,Target\n" +
			"2022,first,race,LEC,30,3,4,0.1,0,0.9,2,0.2,0.05,320,0,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, models.ErrConfiguration)
		})
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	assert.ErrorIs(t, WriteCSV(&bytes.Buffer{}, nil), ErrEmptyDataset)
}
