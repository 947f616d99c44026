// Package scheduler runs prediction jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/f1-predictor/internal/metrics"
)

// Job is one scheduled unit of work. Its context is cancelled after the job timeout.
type Job func(ctx context.Context) error

// Scheduler manages scheduled jobs. A job that is still running when its
// next tick fires is skipped, so runs of a job never overlap.
type Scheduler struct {
	cron       *cron.Cron
	logger     *logrus.Entry
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
	lastErr    error
	lastRun    time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger, jobTimeout time.Duration) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry)), cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		logger:     entry,
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: jobTimeout,
	}
}

// Schedule adds a named job with a standard five-field cron expression
func (s *Scheduler) Schedule(name, cronExpression string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"job": name, "cron": cronExpression}).Info("Scheduled job")
	return nil
}

// RunNow runs a job immediately in the calling goroutine
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.lastRun = start
	s.mu.Unlock()

	fields := logrus.Fields{"job": name, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		metrics.RecordScheduledRun("failure")
		s.logger.WithFields(fields).WithError(err).Error("Scheduled job failed")
		return err
	}
	metrics.RecordScheduledRun("success")
	s.logger.WithFields(fields).Info("Scheduled job completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Ping reports an error when the scheduler is stopped or its last run failed
func (s *Scheduler) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return fmt.Errorf("scheduler is not running")
	}
	if s.lastErr != nil {
		return fmt.Errorf("last run at %s failed: %w", s.lastRun.Format(time.RFC3339), s.lastErr)
	}
	return nil
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}
