package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/pipeline"
	"github.com/yourusername/f1-predictor/internal/repository"
	"github.com/yourusername/f1-predictor/internal/weather"
)

type predictOptions struct {
	realtime    bool
	season      int
	round       int
	weather     string
	driver      string
	modelsDir   string
	record      bool
	metricsFile string
}

func newPredictCmd(a *App) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the next session of a race weekend",
		Long: `Selects the next event (--realtime, the default) or the given round, works out
which sessions have run and ranks the drivers for the next one. A weekend
whose race is classified is reported as its final result.`,
		Example: "  f1predict predict --realtime\n  f1predict predict --season 2024 --round 16 --weather wet --driver LEC",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			return runPredict(cmd, a, opts, req)
		},
	}

	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Predict the next upcoming event")
	cmd.Flags().IntVar(&opts.season, "season", 0, "Season of the event")
	cmd.Flags().IntVar(&opts.round, "round", 0, "Round of the event")
	cmd.Flags().StringVar(&opts.weather, "weather", "", "Override the forecast: dry, wet or a rain probability")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "Report a single driver by three-letter code")
	cmd.Flags().StringVar(&opts.modelsDir, "models-dir", "", "Directory of model artifacts (default models.dir)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Record the run in the history store")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in textfile-collector format (default metrics.textfile)")
	return cmd
}

// request validates the flags and turns them into a pipeline request.
func (o *predictOptions) request() (pipeline.Request, error) {
	var req pipeline.Request

	explicit := o.season != 0 || o.round != 0
	switch {
	case o.realtime && explicit:
		return req, models.ConfigurationErrorf("--realtime cannot be combined with --season or --round")
	case explicit && (o.season <= 0 || o.round <= 0):
		return req, models.ConfigurationErrorf("--season and --round must be given together")
	case explicit:
		req.Season, req.Round = o.season, o.round
	}

	if o.weather != "" {
		rain, err := weather.ParseOverride(o.weather)
		if err != nil {
			return req, err
		}
		req.Weather = &rain
	}
	req.Driver = strings.ToUpper(strings.TrimSpace(o.driver))
	return req, nil
}

func runPredict(cmd *cobra.Command, a *App, opts *predictOptions, req pipeline.Request) error {
	ctx := cmd.Context()

	src, err := a.Source()
	if err != nil {
		return err
	}
	run, err := a.Pipeline(src, a.Bank(opts.modelsDir)).Run(ctx, req)
	if err != nil {
		return err
	}

	if opts.record {
		repo, err := a.History(ctx)
		if errors.Is(err, repository.ErrStorageDisabled) {
			return models.ConfigurationErrorf("--record needs storage.driver sqlite or postgres")
		}
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, run); err != nil {
			return err
		}
		logger.NewAuditLogger(a.log).LogRunRecorded(run.ID.String(), run.Season, run.Round, string(run.Session), a.cfg.Storage.Driver, run.CreatedAt)
	}

	metricsFile := opts.metricsFile
	if metricsFile == "" {
		metricsFile = a.cfg.Metrics.Textfile
	}
	if metricsFile != "" && a.cfg.Metrics.Enabled {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			a.log.WithError(err).WithField("path", metricsFile).Warn("Metrics textfile not written")
		}
	}

	pipeline.WriteReport(cmd.OutOrStdout(), run)
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return models.ConfigurationErrorf("%s takes no arguments, got %q", cmd.CommandPath(), args)
	}
	return nil
}
