package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/datasource"
	"github.com/yourusername/f1-predictor/internal/features"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/practice"
)

// ModelSource supplies the scorer of a session
type ModelSource interface {
	Get(session models.SessionType) (ml.Scorer, error)
}

// StatsProvider supplies historical stats for a weekend
type StatsProvider interface {
	Stats(ctx context.Context, weekend *models.RaceWeekend, quali []models.QualifyingResult) *models.HistoricalStats
}

// WeatherResolver supplies the forecast of a run
type WeatherResolver interface {
	Resolve(ctx context.Context, weekend *models.RaceWeekend, override *float64) models.WeatherObservation
}

// Request describes one prediction run.
type Request struct {
	// Season and Round select an event. Zero values select the next event.
	Season int
	Round  int
	// Weather overrides the forecast with a rain probability.
	Weather *float64
	// Driver limits the report to one driver code.
	Driver string
}

// Realtime reports whether the request selects the next event automatically.
func (r Request) Realtime() bool {
	return r.Season == 0 && r.Round == 0
}

// Pipeline runs the prediction for one weekend end to end.
type Pipeline struct {
	source         datasource.SessionDataSource
	models         ModelSource
	stats          StatsProvider
	weather        WeatherResolver
	analyzer       *practice.Analyzer
	builder        *features.Builder
	fallbackRoster []string
	log            *logger.PredictionLogger
	now            func() time.Time
}

// New creates a pipeline. fallbackRoster is used when no entry list is published.
func New(
	source datasource.SessionDataSource,
	modelSource ModelSource,
	statsProvider StatsProvider,
	weatherResolver WeatherResolver,
	analyzer *practice.Analyzer,
	builder *features.Builder,
	fallbackRoster []string,
	log *logger.PredictionLogger,
) *Pipeline {
	return &Pipeline{
		source:         source,
		models:         modelSource,
		stats:          statsProvider,
		weather:        weatherResolver,
		analyzer:       analyzer,
		builder:        builder,
		fallbackRoster: fallbackRoster,
		log:            log,
		now:            time.Now,
	}
}

// WithClock replaces the wall clock, for reproducible runs.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// weekendData holds the classifications published for a weekend.
type weekendData struct {
	qualifying []models.QualifyingResult
	sprint     []models.RaceResult
	race       []models.RaceResult
}

// Run selects the event, determines its state and either predicts the next
// session or, when every session is complete, reports the final classification.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.PredictionRun, error) {
	start := p.now()

	if req.Driver != "" && !config.IsDriverCode(req.Driver) {
		return nil, models.ConfigurationErrorf("driver %q is not a three-letter code", req.Driver)
	}

	// Step 1: select the event
	weekend, err := p.selectEvent(ctx, req)
	if err != nil {
		return nil, err
	}

	// Step 2: determine how far the weekend has progressed
	data := p.loadClassifications(ctx, &weekend)
	weekend.State = DetermineState(Progress{
		Qualifying: len(data.qualifying) > 0,
		Sprint:     len(data.sprint) > 0,
		Race:       len(data.race) > 0,
	})
	p.log.LogEventSelected(weekend.Season, weekend.Round, weekend.Name, string(weekend.State))

	run := &models.PredictionRun{
		ID:           uuid.New(),
		Season:       weekend.Season,
		Round:        weekend.Round,
		EventName:    weekend.Name,
		State:        weekend.State,
		DriverFilter: req.Driver,
	}

	session, predict := TargetSession(weekend.State, weekend.Format)
	if !predict {
		return p.replay(run, data, req.Driver)
	}
	run.Session = session

	// Step 3: the model must be loadable before any data is gathered for it
	scorer, err := p.models.Get(session)
	if err != nil {
		return nil, err
	}

	// Step 4: gather inputs and build the full-field table
	roster, err := p.roster(ctx, &weekend, data)
	if err != nil {
		return nil, err
	}

	var summaries map[string]models.PracticeSummary
	var practiceTemp *float64
	if fp, err := p.source.Practice(ctx, &weekend); err != nil {
		p.log.WithError(err).Warn("Practice data unavailable, practice features will use defaults")
	} else {
		summaries = p.analyzer.Analyze(fp)
		practiceTemp = fp.TrackTemperature
	}

	obs := p.weather.Resolve(ctx, &weekend, req.Weather)
	run.WeatherSource = obs.Source
	run.RainProbability = obs.RainProbability

	grid := gridBasis(session, data)
	table, err := p.builder.Build(features.Input{
		Weekend:           &weekend,
		Roster:            roster,
		Practice:          summaries,
		PracticeTrackTemp: practiceTemp,
		Weather:           obs,
		Stats:             p.stats.Stats(ctx, &weekend, data.qualifying),
		Grid:              grid,
	})
	if err != nil {
		return nil, err
	}

	// Step 5: score the session's entrants and rank them
	if session == models.SessionSprint {
		table = table.Restrict(gridDrivers(grid))
		if table.Len() == 0 {
			return nil, models.InconsistencyErrorf("no driver of the roster holds a sprint grid slot")
		}
	}
	results, err := Score(table, scorer)
	if err != nil {
		return nil, err
	}
	annotate(results, session, data, grid)

	top := results[0]
	p.log.LogModelRun(string(session), len(results), top.Driver, top.Score)

	// Step 6: project to the requested driver after the full field is ranked
	if req.Driver != "" {
		if results, err = Project(results, req.Driver); err != nil {
			return nil, err
		}
	}
	run.Results = results
	run.CreatedAt = p.now().UTC()
	metrics.RecordPrediction(string(session), run.CreatedAt.Sub(start).Seconds(), float64(run.CreatedAt.Unix()))
	return run, nil
}

func (p *Pipeline) selectEvent(ctx context.Context, req Request) (models.RaceWeekend, error) {
	if req.Realtime() {
		now := p.now()
		for _, season := range []int{now.Year(), now.Year() + 1} {
			calendar, err := p.source.Calendar(ctx, season)
			if err != nil {
				return models.RaceWeekend{}, err
			}
			if w, ok := NextEvent(calendar, now); ok {
				return w, nil
			}
		}
		return models.RaceWeekend{}, models.ConfigurationErrorf("no upcoming event after %s", now.Format(time.RFC3339))
	}

	if req.Season == 0 || req.Round <= 0 {
		return models.RaceWeekend{}, models.ConfigurationErrorf("season and round must be given together")
	}
	calendar, err := p.source.Calendar(ctx, req.Season)
	if err != nil {
		return models.RaceWeekend{}, err
	}
	for _, w := range calendar {
		if w.Round == req.Round {
			return w, nil
		}
	}
	return models.RaceWeekend{}, models.ConfigurationErrorf("season %d has no round %d", req.Season, req.Round)
}

// loadClassifications fetches published results. A failed fetch counts as
// not yet published.
func (p *Pipeline) loadClassifications(ctx context.Context, w *models.RaceWeekend) weekendData {
	var data weekendData
	var err error

	if data.qualifying, err = p.source.Qualifying(ctx, w.Season, w.Round); err != nil {
		p.log.WithError(err).Warn("Qualifying classification unavailable")
	}
	if w.IsSprintWeekend() {
		if data.sprint, err = p.source.Sprint(ctx, w.Season, w.Round); err != nil {
			p.log.WithError(err).Warn("Sprint classification unavailable")
		}
	}
	if data.race, err = p.source.Race(ctx, w.Season, w.Round); err != nil {
		p.log.WithError(err).Warn("Race classification unavailable")
	}
	return data
}

// roster returns the entry list: qualifying entrants, sprint entrants, the
// previous round's starters, then the configured fallback.
func (p *Pipeline) roster(ctx context.Context, w *models.RaceWeekend, data weekendData) ([]models.Driver, error) {
	var out []models.Driver
	switch {
	case len(data.qualifying) > 0:
		for _, q := range data.qualifying {
			out = append(out, models.Driver{Code: q.Driver, ConstructorID: q.ConstructorID})
		}
	case len(data.sprint) > 0:
		out = driversOf(data.sprint)
	case w.Round > 1:
		previous, err := p.source.Race(ctx, w.Season, w.Round-1)
		if err != nil {
			p.log.WithError(err).Warn("Previous round unavailable for the entry list")
		}
		out = driversOf(previous)
	}

	if len(out) == 0 {
		for _, code := range p.fallbackRoster {
			out = append(out, models.Driver{Code: code})
		}
	}
	if len(out) == 0 {
		return nil, models.ConfigurationErrorf("no entry list for %s and no fallback roster configured", w.Name)
	}
	return out, nil
}

func driversOf(results []models.RaceResult) []models.Driver {
	out := make([]models.Driver, 0, len(results))
	for _, r := range results {
		out = append(out, models.Driver{Code: r.Driver, ConstructorID: r.ConstructorID})
	}
	return out
}

// gridBasis returns the known starting order for the session.
// The sprint classification takes precedence over qualifying for the race.
func gridBasis(session models.SessionType, data weekendData) map[string]int {
	grid := make(map[string]int)
	switch session {
	case models.SessionSprint:
		for _, q := range data.qualifying {
			grid[q.Driver] = q.Position
		}
	case models.SessionRace:
		if len(data.sprint) > 0 {
			for _, r := range data.sprint {
				grid[r.Driver] = r.Position
			}
			break
		}
		for _, q := range data.qualifying {
			grid[q.Driver] = q.Position
		}
	}
	return grid
}

func gridDrivers(grid map[string]int) []string {
	out := make([]string, 0, len(grid))
	for d, pos := range grid {
		if pos > 0 {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// annotate fills the qualifying, sprint and grid columns of ranked results.
// Predicted sessions report the predicted rank.
func annotate(results []models.PredictionResult, session models.SessionType, data weekendData, grid map[string]int) {
	quali := make(map[string]int, len(data.qualifying))
	for _, q := range data.qualifying {
		quali[q.Driver] = q.Position
	}
	sprint := make(map[string]int, len(data.sprint))
	for _, r := range data.sprint {
		sprint[r.Driver] = r.Position
	}

	for i := range results {
		r := &results[i]
		r.QualifyingPosition = quali[r.Driver]
		r.SprintPosition = sprint[r.Driver]
		r.GridPosition = grid[r.Driver]
		switch session {
		case models.SessionQualifying:
			r.QualifyingPosition = r.Rank
		case models.SessionSprint:
			r.SprintPosition = r.Rank
		}
	}
}

// replay reports the final race classification of a completed weekend.
func (p *Pipeline) replay(run *models.PredictionRun, data weekendData, driver string) (*models.PredictionRun, error) {
	p.log.LogReplay(run.Season, run.Round)
	run.Session = models.SessionRace

	classified := make([]models.RaceResult, len(data.race))
	copy(classified, data.race)
	sort.SliceStable(classified, func(i, j int) bool {
		pi, pj := classified[i].Position, classified[j].Position
		if (pi > 0) != (pj > 0) {
			return pi > 0
		}
		return pi < pj
	})

	quali := make(map[string]int, len(data.qualifying))
	for _, q := range data.qualifying {
		quali[q.Driver] = q.Position
	}
	sprint := make(map[string]int, len(data.sprint))
	for _, r := range data.sprint {
		sprint[r.Driver] = r.Position
	}

	results := make([]models.PredictionResult, len(classified))
	for i, r := range classified {
		results[i] = models.PredictionResult{
			Rank:               i + 1,
			Driver:             r.Driver,
			Score:              r.Points,
			QualifyingPosition: quali[r.Driver],
			SprintPosition:     sprint[r.Driver],
			GridPosition:       r.Grid,
			Actual:             true,
		}
	}

	if driver != "" {
		var err error
		if results, err = Project(results, driver); err != nil {
			return nil, err
		}
	}
	run.Results = results
	run.CreatedAt = p.now().UTC()
	metrics.RecordReplay()
	return run, nil
}
