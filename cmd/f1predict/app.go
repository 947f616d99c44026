package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/datasource"
	"github.com/yourusername/f1-predictor/internal/features"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/pipeline"
	"github.com/yourusername/f1-predictor/internal/practice"
	"github.com/yourusername/f1-predictor/internal/repository"
	"github.com/yourusername/f1-predictor/internal/stats"
	"github.com/yourusername/f1-predictor/internal/weather"
)

// App holds the configuration and the resources shared by the commands.
type App struct {
	cfg     *config.Config
	log     *logrus.Logger
	closers []func() error
}

// Load reads the configuration, applies the secrets overlay and sets up logging.
func (a *App) Load(ctx context.Context, opts *globalOptions) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return models.ConfigurationErrorf("%v", err)
	}
	cfg, err := config.LoadWithDefaults(opts.configFile)
	if err != nil {
		return models.ConfigurationErrorf("failed to load configuration: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		return models.ConfigurationErrorf("%v", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	a.cfg = cfg
	a.log = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	a.log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Debug("Configuration loaded")
	return nil
}

// Close releases every resource opened by the command, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Source opens the session data source.
func (a *App) Source() (*datasource.F1Source, error) {
	src, err := datasource.NewFromConfig(a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}
	a.onClose(src.Close)
	return src, nil
}

// Bank returns the model bank of dir, or of the configured directory.
func (a *App) Bank(dir string) *ml.Bank {
	if dir == "" {
		dir = a.cfg.Models.Dir
	}
	return ml.NewBank(dir, logger.NewMLLogger(a.log))
}

// Pipeline wires the prediction pipeline over a data source and model bank.
func (a *App) Pipeline(src datasource.SessionDataSource, bank *ml.Bank) *pipeline.Pipeline {
	predLog := logger.NewPredictionLogger(a.log)

	var provider weather.Provider
	if a.cfg.Weather.APIKey != "" {
		httpCfg := datasource.DefaultHTTPClientConfig()
		httpCfg.Timeout = a.cfg.WeatherTimeout()
		httpCfg.MaxRetries = 0
		httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, predLog.Entry)
		a.onClose(httpClient.Close)
		provider = weather.NewOpenWeatherClient(a.cfg.Weather.APIURL, a.cfg.Weather.APIKey, httpClient)
	}

	return pipeline.New(
		src,
		bank,
		stats.NewProvider(src, a.cfg.Stats, logger.NewDataLogger(a.log)),
		weather.NewResolver(provider, a.cfg.Defaults, a.cfg.WeatherTimeout(), predLog),
		practice.NewAnalyzer(a.cfg.Practice),
		features.NewBuilder(a.cfg.Defaults, predLog),
		a.cfg.Roster.Fallback,
		predLog,
	)
}

// History opens the prediction history store.
func (a *App) History(ctx context.Context) (repository.PredictionRunRepository, error) {
	repo, err := repository.NewFromConfig(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(repo.Close)
	return repo, nil
}
