package recurrence

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often the Scheduler runs a pass.
const DefaultInterval = time.Hour

// Scheduler runs the Generator once at start and then on every tick. It is
// meant to run under a supervisor.
type Scheduler struct {
	gen      *Generator
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. A non-positive interval uses
// DefaultInterval.
func NewScheduler(gen *Generator, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		gen:      gen,
		interval: interval,
		logger:   logger.With("component", "recurrence_scheduler"),
	}
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info("recurrence scheduler started", "interval", s.interval)
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("recurrence scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string {
	return "recurrence-scheduler"
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.gen.ProcessRecurringTasks(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("recurrence pass failed", "error", err)
	}
}
