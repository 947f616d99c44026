// Package stats derives driver form and constructor reliability from past classifications.
package stats

import (
	"context"
	"sort"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

// ResultsSource is the part of the session data source the provider reads.
type ResultsSource interface {
	SeasonResults(ctx context.Context, season, beforeRound int) ([]models.RaceResult, error)
	Qualifying(ctx context.Context, season, round int) ([]models.QualifyingResult, error)
}

// Provider computes historical stats for a weekend from the results before it.
type Provider struct {
	source ResultsSource
	cfg    config.StatsConfig
	log    *logger.DataLogger
}

// NewProvider creates a new historical stats provider
func NewProvider(source ResultsSource, cfg config.StatsConfig, log *logger.DataLogger) *Provider {
	return &Provider{source: source, cfg: cfg, log: log}
}

// Stats returns the stats for a weekend. quali is the most recent qualifying
// classification known to the caller; when empty the previous round's is used.
// Unavailable data yields empty stats, which the feature builder fills with defaults.
func (p *Provider) Stats(ctx context.Context, weekend *models.RaceWeekend, quali []models.QualifyingResult) *models.HistoricalStats {
	prior, err := p.source.SeasonResults(ctx, weekend.Season, weekend.Round)
	if err != nil {
		p.log.LogUnavailable("stats", "season results", err)
		prior = nil
	}

	if len(quali) == 0 && weekend.Round > 1 {
		quali, err = p.source.Qualifying(ctx, weekend.Season, weekend.Round-1)
		if err != nil {
			p.log.LogUnavailable("stats", "previous qualifying", err)
			quali = nil
		}
	}

	return Compute(prior, quali, p.cfg)
}

// Compute derives stats from race results ordered by any round and one
// qualifying classification. Drivers without history get no entry.
func Compute(prior []models.RaceResult, quali []models.QualifyingResult, cfg config.StatsConfig) *models.HistoricalStats {
	out := &models.HistoricalStats{
		Drivers:     make(map[string]models.DriverStats),
		Reliability: make(map[string]float64),
	}

	results := make([]models.RaceResult, len(prior))
	copy(results, prior)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Season != results[j].Season {
			return results[i].Season < results[j].Season
		}
		return results[i].Round < results[j].Round
	})

	byDriver := make(map[string][]models.RaceResult)
	byConstructor := make(map[string][]models.RaceResult)
	for _, r := range results {
		byDriver[r.Driver] = append(byDriver[r.Driver], r)
		byConstructor[r.ConstructorID] = append(byConstructor[r.ConstructorID], r)
	}

	for driver, rs := range byDriver {
		ds := models.DriverStats{}
		if avg, ok := averageFinish(rs, cfg.AvgFinishWindow); ok {
			ds.AvgFinish = &avg
		}
		rate := dnfRate(rs)
		ds.DNFRate = &rate
		out.Drivers[driver] = ds
	}

	for constructor, rs := range byConstructor {
		if constructor == "" {
			continue
		}
		out.Reliability[constructor] = reliability(rs, cfg.ReliabilityWindow)
	}

	for driver, gap := range teammateGaps(quali) {
		ds := out.Drivers[driver]
		g := gap
		ds.QualiGapToTeammate = &g
		out.Drivers[driver] = ds
	}
	return out
}

// averageFinish averages the last window classified finishes.
func averageFinish(rs []models.RaceResult, window int) (float64, bool) {
	var finishes []int
	for _, r := range rs {
		if r.Finished() && r.Position > 0 {
			finishes = append(finishes, r.Position)
		}
	}
	if len(finishes) == 0 {
		return 0, false
	}
	if window > 0 && len(finishes) > window {
		finishes = finishes[len(finishes)-window:]
	}
	sum := 0
	for _, p := range finishes {
		sum += p
	}
	return float64(sum) / float64(len(finishes)), true
}

func dnfRate(rs []models.RaceResult) float64 {
	if len(rs) == 0 {
		return 0
	}
	dnfs := 0
	for _, r := range rs {
		if !r.Finished() {
			dnfs++
		}
	}
	return float64(dnfs) / float64(len(rs))
}

// reliability is one minus the share of mechanical failures over the last window entries.
func reliability(rs []models.RaceResult, window int) float64 {
	if window > 0 && len(rs) > window {
		rs = rs[len(rs)-window:]
	}
	if len(rs) == 0 {
		return 1
	}
	failures := 0
	for _, r := range rs {
		if r.MechanicalFailure() {
			failures++
		}
	}
	return 1 - float64(failures)/float64(len(rs))
}

// teammateGaps returns each driver's best lap minus their teammate's, in seconds.
// Drivers without a time, or without a timed teammate, are omitted.
func teammateGaps(quali []models.QualifyingResult) map[string]float64 {
	byTeam := make(map[string][]models.QualifyingResult)
	for _, q := range quali {
		if q.BestLap > 0 && q.ConstructorID != "" {
			byTeam[q.ConstructorID] = append(byTeam[q.ConstructorID], q)
		}
	}

	gaps := make(map[string]float64)
	for _, team := range byTeam {
		if len(team) != 2 {
			continue
		}
		gaps[team[0].Driver] = team[0].BestLap - team[1].BestLap
		gaps[team[1].Driver] = team[1].BestLap - team[0].BestLap
	}
	return gaps
}
