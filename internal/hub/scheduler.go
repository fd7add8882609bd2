package hub

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives a task on a fixed interval until the context is
// canceled. The task runs once immediately at startup.
type Scheduler struct {
	Name     string
	Interval time.Duration
	Task     func(context.Context) error
}

func (s *Scheduler) Run(ctx context.Context) {
	if s.Task == nil || s.Interval <= 0 {
		return
	}

	if err := s.Task(ctx); err != nil {
		slog.Error("initial scheduled run failed", "task", s.Name, "err", err)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Task(ctx); err != nil {
				slog.Error("scheduled run failed", "task", s.Name, "err", err)
			}
		}
	}
}
