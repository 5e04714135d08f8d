package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
)

// fakeCompletionStore applies the same guard as the SQL sweep: only
// approved rows whose end has passed move to completed.
type fakeCompletionStore struct {
	mu   sync.Mutex
	rows []model.Reservation
	err  error
}

func (f *fakeCompletionStore) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for i, r := range f.rows {
		if r.Status == booking.StatusApproved && !r.EndsAt.After(now) {
			f.rows[i].Status = booking.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (f *fakeCompletionStore) statuses() []booking.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]booking.Status, len(f.rows))
	for i, r := range f.rows {
		out[i] = r.Status
	}
	return out
}

func TestSweepOnce(t *testing.T) {
	now := monday(12, 0)
	store := &fakeCompletionStore{rows: []model.Reservation{
		{ID: 1, Status: booking.StatusApproved, EndsAt: monday(11, 0)},  // elapsed
		{ID: 2, Status: booking.StatusApproved, EndsAt: monday(12, 0)},  // ends exactly now
		{ID: 3, Status: booking.StatusApproved, EndsAt: monday(13, 0)},  // still running
		{ID: 4, Status: booking.StatusPending, EndsAt: monday(11, 0)},   // never swept
		{ID: 5, Status: booking.StatusCancelled, EndsAt: monday(11, 0)}, // terminal
	}}

	sweeper := NewCompletionSweeper(store, time.Minute)
	sweeper.now = func() time.Time { return now }

	n, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 2 {
		t.Fatalf("completed %d rows, want 2", n)
	}
	want := []booking.Status{
		booking.StatusCompleted,
		booking.StatusCompleted,
		booking.StatusApproved,
		booking.StatusPending,
		booking.StatusCancelled,
	}
	for i, got := range store.statuses() {
		if got != want[i] {
			t.Errorf("row %d status = %s, want %s", i, got, want[i])
		}
	}

	// A second sweep finds nothing new.
	n, err = sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("second SweepOnce: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep completed %d rows, want 0", n)
	}
}

func TestSweepOncePropagatesErrors(t *testing.T) {
	store := &fakeCompletionStore{err: errors.New("connection refused")}
	sweeper := NewCompletionSweeper(store, time.Minute)
	if _, err := sweeper.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeCompletionStore{}
	sweeper := NewCompletionSweeper(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
