package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/yourusername/f1-predictor/internal/health"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/pipeline"
	"github.com/yourusername/f1-predictor/internal/publisher"
	"github.com/yourusername/f1-predictor/internal/repository"
	"github.com/yourusername/f1-predictor/internal/scheduler"
)

const (
	watchJobName    = "predict-next-event"
	watchJobTimeout = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type watchOptions struct {
	cron      string
	port      string
	modelsDir string
	runNow    bool
}

func newWatchCmd(a *App) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Predict the next event on a schedule",
		Long: `Runs a realtime prediction on a cron schedule, records every run in the
history store and publishes it to Redis when enabled. Serves /health, /ready
and /metrics until interrupted.`,
		Example: `  f1predict watch --cron "0 */6 * * *" --port 8080`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cron == "" {
				opts.cron = a.cfg.Schedule.Cron
			}
			if opts.port == "" {
				opts.port = a.cfg.Schedule.HealthPort
			}
			if _, err := cron.ParseStandard(opts.cron); err != nil {
				return models.ConfigurationErrorf("invalid --cron %q: %v", opts.cron, err)
			}
			return runWatch(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.cron, "cron", "", "Five-field cron expression in UTC (default schedule.cron)")
	cmd.Flags().StringVar(&opts.port, "port", "", "Port of the health server (default schedule.health_port)")
	cmd.Flags().StringVar(&opts.modelsDir, "models-dir", "", "Directory of model artifacts (default models.dir)")
	cmd.Flags().BoolVar(&opts.runNow, "run-now", true, "Predict once at startup before waiting for the schedule")
	return cmd
}

// predictJob is the scheduled unit of work: one realtime run, recorded and published.
type predictJob struct {
	pipe    *pipeline.Pipeline
	history repository.PredictionRunRepository
	pub     *publisher.RedisPublisher
	store   string
	audit   *logger.AuditLogger
}

func (j *predictJob) Run(ctx context.Context) error {
	run, err := j.pipe.Run(ctx, pipeline.Request{})
	if err != nil {
		j.audit.LogScheduledRunFailed("prediction", err)
		return err
	}

	if j.history != nil {
		if err := j.history.Save(ctx, run); err != nil {
			j.audit.LogScheduledRunFailed("record", err)
			return fmt.Errorf("failed to record run: %w", err)
		}
		j.audit.LogRunRecorded(run.ID.String(), run.Season, run.Round, string(run.Session), j.store, run.CreatedAt)
	}

	if j.pub != nil {
		if _, err := j.pub.Publish(ctx, run); err != nil {
			j.audit.LogScheduledRunFailed("publish", err)
			return err
		}
	}
	return nil
}

func runWatch(cmd *cobra.Command, a *App, opts *watchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := a.Source()
	if err != nil {
		return err
	}

	job := &predictJob{
		pipe:  a.Pipeline(src, a.Bank(opts.modelsDir)),
		store: a.cfg.Storage.Driver,
		audit: logger.NewAuditLogger(a.log),
	}
	checks := map[string]health.Pinger{}

	history, err := a.History(ctx)
	switch {
	case errors.Is(err, repository.ErrStorageDisabled):
		a.log.Warn("History storage disabled, scheduled runs are not recorded")
	case err != nil:
		return err
	default:
		job.history = history
		checks["history"] = history
	}

	if a.cfg.Publisher.Enabled {
		pub, err := publisher.NewRedisPublisher(a.cfg.Publisher.RedisURL, a.cfg.Publisher.Channel, job.audit)
		if err != nil {
			return err
		}
		a.onClose(pub.Close)
		job.pub = pub
		checks["publisher"] = pub
	}

	sched := scheduler.NewScheduler(a.log, watchJobTimeout)
	if err := sched.Schedule(watchJobName, opts.cron, job.Run); err != nil {
		return models.ConfigurationErrorf("%v", err)
	}
	checks["scheduler"] = sched

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	server := health.NewServer(health.Config{
		ServiceName: a.cfg.App.Name,
		Version:     Version,
		Port:        opts.port,
		MetricsPath: metricsPath,
		Logger:      a.log,
		Checks:      checks,
		NextRun:     sched.GetNextRun,
	})
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	// A failed startup run is reported by /ready until the next scheduled run succeeds.
	if opts.runNow {
		_ = sched.RunNow(watchJobName, job.Run)
	}
	if err := sched.Start(); err != nil {
		return err
	}
	server.SetReady(true)
	a.log.WithField("next_run", sched.GetNextRun()).Info("Watching for the next event")

	<-ctx.Done()
	server.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("Scheduled run still in progress at shutdown")
	}
	if err := server.Shutdown(); err != nil {
		a.log.WithError(err).Debug("Health server shutdown")
	}
	return nil
}
