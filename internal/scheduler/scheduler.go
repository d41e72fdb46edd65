package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler periodically runs a job. Runs never overlap: a tick that arrives
// while the previous run is still going is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Job
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. timeout bounds a single run; zero means the
// interval itself.
func New(interval, timeout time.Duration, job Job, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		scheduler: s,
		job:       job,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the job, runs it immediately and returns. Cancelling ctx
// cancels an in-flight run; Stop prevents further ones.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval < time.Second {
		return fmt.Errorf("scheduler: interval %s is shorter than one second", s.interval)
	}

	seconds := int(s.interval / time.Second)
	_, err := s.scheduler.Every(seconds).Seconds().SingletonMode().StartImmediately().Do(func() {
		s.logger.Debug("scheduler: running job")

		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.job(runCtx); err != nil {
			s.logger.Warn("scheduler: run failed; will retry on next tick", "error", err)
			return
		}
		s.logger.Debug("scheduler: job completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
