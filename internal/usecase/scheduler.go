package usecase

import (
	"context"
	"log/slog"
	"time"

	"ReviewScanner/internal/ports"
)

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	location *time.Location
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. Run times are
// taken in loc.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{driver: driver, pipeline: pipeline, location: loc, logger: log}
}

// Start registers the pipeline with the provided scheduler. A failed run is
// logged and the next tick tries again.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.pipeline.Run(ctx, trigger.In(s.location)); err != nil && s.logger != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
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
