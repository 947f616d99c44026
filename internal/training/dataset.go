// Package training assembles labelled feature rows from past seasons for the model trainer.
package training

import (
	"context"
	"fmt"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/datasource"
	"github.com/yourusername/f1-predictor/internal/features"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/practice"
	"github.com/yourusername/f1-predictor/internal/stats"
	"github.com/yourusername/f1-predictor/internal/weather"
)

// Row is one labelled driver of one session. Feature columns carry the
// schema names so exported files read back without a mapping.
type Row struct {
	Season             int     `dataframe:"Season"`
	Round              int     `dataframe:"Round"`
	Session            string  `dataframe:"Session"`
	Driver             string  `dataframe:"Driver"`
	Constructor        string  `dataframe:"Constructor"`
	TrackTemp          float64 `dataframe:"TrackTemp"`
	OvertakeDifficulty float64 `dataframe:"OvertakeDifficulty"`
	DriverAvgPos       float64 `dataframe:"DriverAvgPos"`
	DriverDNFRate      float64 `dataframe:"DriverDNFRate"`
	QualiDeltaTeammate float64 `dataframe:"QualiDeltaTeammate"`
	ReliabilityScore   float64 `dataframe:"ReliabilityScore"`
	GridPosition       float64 `dataframe:"GridPosition"`
	RacePace           float64 `dataframe:"RacePace"`
	TireDegradation    float64 `dataframe:"TireDegradation"`
	TopSpeed           float64 `dataframe:"TopSpeed"`
	RainProbability    float64 `dataframe:"RainProbability"`
	WeatherSource      string  `dataframe:"WeatherSource"`
	Position           int     `dataframe:"Position"`
	FieldSize          int     `dataframe:"FieldSize"`
	Target             float64 `dataframe:"Target"`
}

// Features returns the feature vector of the row.
func (r *Row) Features() models.FeatureVector {
	return models.FeatureVector{
		Driver:             r.Driver,
		ConstructorID:      r.Constructor,
		TrackTemp:          r.TrackTemp,
		OvertakeDifficulty: r.OvertakeDifficulty,
		DriverAvgPos:       r.DriverAvgPos,
		DriverDNFRate:      r.DriverDNFRate,
		QualiDeltaTeammate: r.QualiDeltaTeammate,
		ReliabilityScore:   r.ReliabilityScore,
		GridPosition:       r.GridPosition,
		RacePace:           r.RacePace,
		TireDegradation:    r.TireDegradation,
		TopSpeed:           r.TopSpeed,
		RainProbability:    r.RainProbability,
	}
}

func newRow(w *models.RaceWeekend, weather models.WeatherSource, session models.SessionType, fv *models.FeatureVector, position, fieldSize int) Row {
	return Row{
		Season:             w.Season,
		Round:              w.Round,
		Session:            string(session),
		Driver:             fv.Driver,
		Constructor:        fv.ConstructorID,
		TrackTemp:          fv.TrackTemp,
		OvertakeDifficulty: fv.OvertakeDifficulty,
		DriverAvgPos:       fv.DriverAvgPos,
		DriverDNFRate:      fv.DriverDNFRate,
		QualiDeltaTeammate: fv.QualiDeltaTeammate,
		ReliabilityScore:   fv.ReliabilityScore,
		GridPosition:       fv.GridPosition,
		RacePace:           fv.RacePace,
		TireDegradation:    fv.TireDegradation,
		TopSpeed:           fv.TopSpeed,
		RainProbability:    fv.RainProbability,
		WeatherSource:      string(weather),
		Position:           position,
		FieldSize:          fieldSize,
		Target:             ml.Relevance(position, fieldSize),
	}
}

// Builder replays past weekends through the feature builder.
type Builder struct {
	source   datasource.SessionDataSource
	analyzer *practice.Analyzer
	features *features.Builder
	statsCfg config.StatsConfig
	defaults config.DefaultsConfig
	log      *logger.MLLogger
}

// NewBuilder creates a dataset builder.
func NewBuilder(
	source datasource.SessionDataSource,
	analyzer *practice.Analyzer,
	featureBuilder *features.Builder,
	statsCfg config.StatsConfig,
	defaults config.DefaultsConfig,
	log *logger.MLLogger,
) *Builder {
	return &Builder{
		source:   source,
		analyzer: analyzer,
		features: featureBuilder,
		statsCfg: statsCfg,
		defaults: defaults,
		log:      log,
	}
}

// Build returns the labelled rows of every completed weekend of the seasons.
// Stats for a round use only results of earlier rounds of the same season.
func (b *Builder) Build(ctx context.Context, seasons []int) ([]Row, error) {
	var rows []Row
	for _, season := range seasons {
		seasonRows, err := b.buildSeason(ctx, season)
		if err != nil {
			return nil, err
		}
		rows = append(rows, seasonRows...)
	}
	return rows, nil
}

func (b *Builder) buildSeason(ctx context.Context, season int) ([]Row, error) {
	calendar, err := b.source.Calendar(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load %d calendar: %w", season, err)
	}

	var rows []Row
	var prior []models.RaceResult
	var prevQuali []models.QualifyingResult
	events := 0
	for i := range calendar {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := &calendar[i]

		race, err := b.source.Race(ctx, w.Season, w.Round)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s race: %w", w, err)
		}
		if len(race) == 0 {
			prevQuali = nil
			continue
		}
		quali, err := b.source.Qualifying(ctx, w.Season, w.Round)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s qualifying: %w", w, err)
		}
		var sprint []models.RaceResult
		if w.IsSprintWeekend() {
			if sprint, err = b.source.Sprint(ctx, w.Season, w.Round); err != nil {
				return nil, fmt.Errorf("failed to load %s sprint: %w", w, err)
			}
		}

		weekendRows, err := b.buildWeekend(ctx, w, prior, prevQuali, quali, sprint, race)
		if err != nil {
			return nil, err
		}
		rows = append(rows, weekendRows...)
		prior = append(prior, race...)
		prevQuali = quali
		events++
	}

	b.log.LogDatasetBuilt(season, events, len(rows))
	return rows, nil
}

func (b *Builder) buildWeekend(
	ctx context.Context,
	w *models.RaceWeekend,
	prior []models.RaceResult,
	prevQuali, quali []models.QualifyingResult,
	sprint, race []models.RaceResult,
) ([]Row, error) {
	// Before qualifying only the previous round's teammate gaps are known.
	in := features.Input{
		Weekend: w,
		Stats:   stats.Compute(prior, prevQuali, b.statsCfg),
		Weather: weather.DefaultObservation(b.defaults),
	}
	if fp, err := b.source.Practice(ctx, w); err == nil {
		in.Practice = b.analyzer.Analyze(fp)
		in.PracticeTrackTemp = fp.TrackTemperature
		if fp.RainfallFraction != nil {
			in.Weather = models.WeatherObservation{
				RainProbability: *fp.RainfallFraction,
				Temperature:     b.defaults.TrackTemp,
				Description:     "practice",
				Source:          models.WeatherPractice,
			}
		}
	}

	var rows []Row

	// Qualifying: no grid is known before the session.
	if len(quali) > 0 {
		positions := make(map[string]int, len(quali))
		in.Roster = in.Roster[:0]
		for _, q := range quali {
			in.Roster = append(in.Roster, models.Driver{Code: q.Driver, ConstructorID: q.ConstructorID})
			positions[q.Driver] = q.Position
		}
		in.Grid = nil
		out, err := b.label(models.SessionQualifying, in, positions)
		if err != nil {
			return nil, err
		}
		rows = append(rows, out...)
	}

	in.Stats = stats.Compute(prior, quali, b.statsCfg)
	qualiGrid := make(map[string]int, len(quali))
	for _, q := range quali {
		qualiGrid[q.Driver] = q.Position
	}

	if len(sprint) > 0 {
		in.Roster = rosterOf(sprint)
		in.Grid = qualiGrid
		out, err := b.label(models.SessionSprint, in, positionsOf(sprint))
		if err != nil {
			return nil, err
		}
		rows = append(rows, out...)
	}

	// Race: the grid basis matches the one used when predicting.
	in.Roster = rosterOf(race)
	in.Grid = qualiGrid
	if len(sprint) > 0 {
		in.Grid = positionsOf(sprint)
	}
	out, err := b.label(models.SessionRace, in, positionsOf(race))
	if err != nil {
		return nil, err
	}
	return append(rows, out...), nil
}

func (b *Builder) label(session models.SessionType, in features.Input, positions map[string]int) ([]Row, error) {
	table, err := b.features.Build(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s features for %s: %w", session, in.Weekend, err)
	}
	rows := table.Rows()
	out := make([]Row, 0, len(rows))
	for i := range rows {
		out = append(out, newRow(in.Weekend, in.Weather.Source, session, &rows[i], positions[rows[i].Driver], len(rows)))
	}
	return out, nil
}

func rosterOf(results []models.RaceResult) []models.Driver {
	out := make([]models.Driver, 0, len(results))
	for _, r := range results {
		out = append(out, models.Driver{Code: r.Driver, ConstructorID: r.ConstructorID})
	}
	return out
}

// positionsOf maps drivers to classified positions. Unclassified drivers map to 0.
func positionsOf(results []models.RaceResult) map[string]int {
	out := make(map[string]int, len(results))
	for _, r := range results {
		out[r.Driver] = r.Position
	}
	return out
}

// Datasets groups rows by session for the trainer.
func Datasets(rows []Row) map[models.SessionType]ml.Dataset {
	out := make(map[models.SessionType]ml.Dataset)
	seasons := make(map[models.SessionType]map[int]bool)
	for i := range rows {
		session := models.SessionType(rows[i].Session)
		ds := out[session]
		ds.Rows = append(ds.Rows, rows[i].Features())
		ds.Targets = append(ds.Targets, rows[i].Target)
		if seasons[session] == nil {
			seasons[session] = make(map[int]bool)
		}
		if !seasons[session][rows[i].Season] {
			seasons[session][rows[i].Season] = true
			ds.Seasons = append(ds.Seasons, rows[i].Season)
		}
		out[session] = ds
	}
	return out
}
