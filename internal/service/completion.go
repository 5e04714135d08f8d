package service

import (
	"context"
	"log"
	"time"
)

// CompletionStore is the single operation the sweeper needs: advance
// every approved reservation whose end instant has passed to completed
// and report how many rows moved.
type CompletionStore interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

// CompletionSweeper periodically advances elapsed approved reservations
// to completed. The transition is also reachable through an explicit
// administrator SetStatus call; the sweeper only automates it. The
// underlying update is guarded by status and deadline, so re-running a
// sweep never double-transitions a record.
type CompletionSweeper struct {
	store    CompletionStore
	interval time.Duration
	now      func() time.Time
}

// NewCompletionSweeper builds a sweeper. Interval defaults to one
// minute when non-positive.
func NewCompletionSweeper(store CompletionStore, interval time.Duration) *CompletionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CompletionSweeper{store: store, interval: interval, now: time.Now}
}

// Run sweeps until ctx is cancelled. Errors are logged and the loop
// continues; a failed sweep is retried on the next tick.
func (s *CompletionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("completion-sweeper: sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce performs a single idempotent sweep and returns how many
// reservations were completed.
func (s *CompletionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.CompleteElapsed(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("completion-sweeper: completed %d elapsed reservations", n)
	}
	return n, nil
}
