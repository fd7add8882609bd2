package hub

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	t.Parallel()

	var runs atomic.Int64
	s := &Scheduler{
		Name:     "test",
		Interval: 10 * time.Millisecond,
		Task: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("runs = %d, want at least 3", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestScheduler_NoTaskIsNoop(t *testing.T) {
	t.Parallel()

	s := &Scheduler{Name: "empty", Interval: time.Second}
	// Returns immediately instead of blocking.
	s.Run(context.Background())
}
