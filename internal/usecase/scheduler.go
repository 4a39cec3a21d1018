package usecase

import (
	"context"
	"log/slog"
	"time"

	"ArticleHunter/internal/ports"
)

// Scheduler wires the interval driver with the poll cycle.
type Scheduler struct {
	driver ports.Scheduler
	hunter *Hunter
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, hunter *Hunter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, hunter: hunter, logger: logger}
}

// Start registers the cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.hunter == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report := s.hunter.RunCycle(ctx)
		failed, skipped := 0, 0
		for _, src := range report.Sources {
			if src.Err != nil {
				failed++
			}
			if src.Skipped {
				skipped++
			}
		}
		s.logger.Info("cycle finished",
			"trigger", trigger,
			"took", time.Since(report.Started),
			"grown", report.Grown(),
			"failed", failed,
			"skipped", skipped,
		)
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
