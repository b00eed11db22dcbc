package usecase

import (
	"context"
	"log/slog"
	"time"

	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// Scheduler wires the cron driver with the daily pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. Each firing
// processes the day it fires on; failures are logged and the schedule continues.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(jobCtx context.Context, trigger time.Time) {
		s.logger.Info("scheduled run started", "trigger", trigger.Format(time.RFC3339))
		if err := s.pipeline.ProcessDay(jobCtx, trigger); err != nil {
			s.logger.Error("scheduled run failed", "err", err)
			return
		}
		s.logger.Info("scheduled run finished")
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
