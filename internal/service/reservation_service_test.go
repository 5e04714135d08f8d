package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
	"github.com/iliyamo/campus-space-reservation/internal/queue"
)

// ----- in-memory fakes -----

type fakeSpaceStore struct {
	mu     sync.Mutex
	spaces map[uint64]model.Space
}

func newFakeSpaceStore(spaces ...model.Space) *fakeSpaceStore {
	m := make(map[uint64]model.Space, len(spaces))
	for _, s := range spaces {
		m[s.ID] = s
	}
	return &fakeSpaceStore{spaces: m}
}

func (f *fakeSpaceStore) GetByID(ctx context.Context, id uint64) (model.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.spaces[id]
	if !ok {
		return model.Space{}, booking.ErrSpaceNotFound
	}
	return s, nil
}

// fakeReservationStore mirrors the atomicity contract of the MySQL
// repository: the conflict check and the write happen under one lock.
type fakeReservationStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Reservation
	err    error // when set, every call fails with it
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{nextID: 1, rows: map[uint64]model.Reservation{}}
}

func (f *fakeReservationStore) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Reservation{}, f.err
	}
	r, ok := f.rows[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeReservationStore) FindBlocking(ctx context.Context, spaceID, excludeID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.blockingLocked(spaceID, excludeID), nil
}

func (f *fakeReservationStore) blockingLocked(spaceID, excludeID uint64) []model.Reservation {
	var out []model.Reservation
	for _, r := range f.rows {
		if r.SpaceID != spaceID || (excludeID != 0 && r.ID == excludeID) {
			continue
		}
		if r.Status.Blocking() {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeReservationStore) conflictLocked(spaceID uint64, iv booking.Interval, excludeID uint64) bool {
	for _, r := range f.blockingLocked(spaceID, excludeID) {
		if iv.Overlaps(r.Interval()) {
			return true
		}
	}
	return false
}

func (f *fakeReservationStore) CreateIfNoConflict(ctx context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.conflictLocked(res.SpaceID, res.Interval(), 0) {
		return booking.ErrConflict
	}
	res.ID = f.nextID
	f.nextID++
	res.CreatedAt = time.Now().UTC()
	f.rows[res.ID] = *res
	return nil
}

func (f *fakeReservationStore) UpdateIntervalIfNoConflict(ctx context.Context, id uint64, iv booking.Interval) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Reservation{}, f.err
	}
	r, ok := f.rows[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	if f.conflictLocked(r.SpaceID, iv, id) {
		return model.Reservation{}, booking.ErrConflict
	}
	r.StartsAt, r.EndsAt = iv.Start, iv.End
	f.rows[id] = r
	return r, nil
}

func (f *fakeReservationStore) CompareAndSetStatus(ctx context.Context, id uint64, expected, next booking.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	r, ok := f.rows[id]
	if !ok {
		return booking.ErrReservationNotFound
	}
	if r.Status != expected {
		return booking.ErrInvalidTransition
	}
	r.Status = next
	f.rows[id] = r
	return nil
}

// ----- helpers -----

var (
	admin = model.Actor{UserID: 1, Role: model.RoleAdmin}
	alice = model.Actor{UserID: 2, Role: model.RoleUser}
	bob   = model.Actor{UserID: 3, Role: model.RoleUser}
)

// monday returns a wall-clock instant on Monday 2025-03-03 UTC.
func monday(h, m int) time.Time {
	return time.Date(2025, time.March, 3, h, m, 0, 0, time.UTC)
}

func openSpace() model.Space {
	return model.Space{
		ID:     1,
		Name:   "Lecture Hall A",
		Status: booking.SpaceAvailable,
		Availability: booking.WeeklySchedule{
			time.Monday: {{Start: "09:00", End: "12:00"}},
		},
	}
}

func newService(t *testing.T, spaces *fakeSpaceStore, rs *fakeReservationStore, opts Options) *ReservationService {
	t.Helper()
	return NewReservationService(spaces, rs, opts)
}

func mustCreate(t *testing.T, svc *ReservationService, actor model.Actor, spaceID uint64, start, end time.Time) model.Reservation {
	t.Helper()
	res, err := svc.Create(context.Background(), actor, CreateInput{
		SpaceID:  spaceID,
		StartsAt: start,
		EndsAt:   end,
		Purpose:  model.PurposeStudy,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res
}

// ----- tests -----

func TestCreateStartsPending(t *testing.T) {
	rs := newFakeReservationStore()
	events := make(chan queue.ReservationEvent, 1)
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{
		Publish: func(ctx context.Context, ev queue.ReservationEvent) { events <- ev },
	})

	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))
	if res.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if res.Status != booking.StatusPending {
		t.Fatalf("status = %s, want pending", res.Status)
	}
	if res.UserID != alice.UserID {
		t.Fatalf("owner = %d, want %d", res.UserID, alice.UserID)
	}

	select {
	case ev := <-events:
		if ev.Event != queue.EventReservationCreated || ev.ReservationID != res.ID {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no creation event published")
	}
}

func TestPublishContextIsBounded(t *testing.T) {
	rs := newFakeReservationStore()
	deadlines := make(chan bool, 1)
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{
		StoreTimeout: 2 * time.Second,
		Publish: func(ctx context.Context, ev queue.ReservationEvent) {
			_, ok := ctx.Deadline()
			deadlines <- ok
		},
	})

	mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))
	select {
	case hasDeadline := <-deadlines:
		if !hasDeadline {
			t.Fatal("publish context must carry a deadline")
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestCreateRejectsInvalidInterval(t *testing.T) {
	svc := newService(t, newFakeSpaceStore(openSpace()), newFakeReservationStore(), Options{})
	_, err := svc.Create(context.Background(), alice, CreateInput{
		SpaceID:  1,
		StartsAt: monday(11, 0),
		EndsAt:   monday(10, 0),
		Purpose:  model.PurposeStudy,
	})
	if !errors.Is(err, booking.ErrInvalidInterval) {
		t.Fatalf("got %v, want ErrInvalidInterval", err)
	}
}

func TestCreateConflict(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))

	_, err := svc.Create(context.Background(), bob, CreateInput{
		SpaceID:  1,
		StartsAt: monday(10, 30),
		EndsAt:   monday(11, 30),
		Purpose:  model.PurposeMeeting,
	})
	if !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestCreateBackToBackBookings(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))
	// Shared boundary instant, half-open intervals: no conflict.
	mustCreate(t, svc, bob, 1, monday(11, 0), monday(12, 0))
}

func TestCreateUnknownSpace(t *testing.T) {
	svc := newService(t, newFakeSpaceStore(), newFakeReservationStore(), Options{})
	_, err := svc.Create(context.Background(), alice, CreateInput{
		SpaceID:  99,
		StartsAt: monday(10, 0),
		EndsAt:   monday(11, 0),
		Purpose:  model.PurposeStudy,
	})
	if !errors.Is(err, booking.ErrSpaceNotFound) {
		t.Fatalf("got %v, want ErrSpaceNotFound", err)
	}
}

func TestCreateSpaceUnderMaintenance(t *testing.T) {
	space := openSpace()
	space.Status = booking.SpaceMaintenance
	// Status gates even with window enforcement off.
	svc := newService(t, newFakeSpaceStore(space), newFakeReservationStore(), Options{})
	_, err := svc.Create(context.Background(), alice, CreateInput{
		SpaceID:  1,
		StartsAt: monday(10, 0),
		EndsAt:   monday(11, 0),
		Purpose:  model.PurposeStudy,
	})
	if !errors.Is(err, booking.ErrOutOfSchedule) {
		t.Fatalf("got %v, want ErrOutOfSchedule", err)
	}
}

func TestCreateScheduleEnforcement(t *testing.T) {
	mk := func(enforce bool) *ReservationService {
		return newService(t, newFakeSpaceStore(openSpace()), newFakeReservationStore(), Options{
			EnforceSchedule: enforce,
		})
	}

	// Inside the Monday 09:00-12:00 window.
	enforced := mk(true)
	mustCreate(t, enforced, alice, 1, monday(9, 0), monday(12, 0))

	// Outside the window with enforcement on.
	_, err := enforced.Create(context.Background(), bob, CreateInput{
		SpaceID:  1,
		StartsAt: monday(13, 0),
		EndsAt:   monday(14, 0),
		Purpose:  model.PurposeStudy,
	})
	if !errors.Is(err, booking.ErrOutOfSchedule) {
		t.Fatalf("got %v, want ErrOutOfSchedule", err)
	}

	// Same request passes when enforcement is off.
	mustCreate(t, mk(false), bob, 1, monday(13, 0), monday(14, 0))
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), model.Actor{UserID: uint64(10 + n), Role: model.RoleUser}, CreateInput{
				SpaceID:  1,
				StartsAt: monday(10, 0),
				EndsAt:   monday(11, 0),
				Purpose:  model.PurposeStudy,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, booking.ErrConflict):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != workers-1 {
		t.Fatalf("won=%d lost=%d, want exactly one winner", won, lost)
	}
}

func TestUpdateIntervalExcludesOwnRecord(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))

	// The new interval overlaps the old one; the reservation must not
	// conflict with itself.
	updated, err := svc.UpdateInterval(context.Background(), alice, res.ID, monday(10, 30), monday(11, 30))
	if err != nil {
		t.Fatalf("UpdateInterval: %v", err)
	}
	if !updated.StartsAt.Equal(monday(10, 30)) || !updated.EndsAt.Equal(monday(11, 30)) {
		t.Fatalf("interval not updated: %v..%v", updated.StartsAt, updated.EndsAt)
	}
}

func TestUpdateIntervalConflictsWithOthers(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(9, 0), monday(10, 0))
	mustCreate(t, svc, bob, 1, monday(10, 0), monday(11, 0))

	_, err := svc.UpdateInterval(context.Background(), alice, res.ID, monday(9, 30), monday(10, 30))
	if !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestUpdateIntervalAuthorization(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))

	if _, err := svc.UpdateInterval(context.Background(), bob, res.ID, monday(11, 0), monday(12, 0)); !errors.Is(err, booking.ErrForbidden) {
		t.Fatalf("stranger update: got %v, want ErrForbidden", err)
	}
	// An administrator may reschedule anyone's reservation.
	if _, err := svc.UpdateInterval(context.Background(), admin, res.ID, monday(11, 0), monday(12, 0)); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestUpdateIntervalOnTerminalReservation(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))
	if _, err := svc.Cancel(context.Background(), alice, res.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err := svc.UpdateInterval(context.Background(), alice, res.ID, monday(11, 0), monday(12, 0))
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestSetStatusLifecycle(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))

	// Owner may not approve their own reservation.
	if _, err := svc.SetStatus(context.Background(), alice, res.ID, booking.StatusApproved); !errors.Is(err, booking.ErrForbidden) {
		t.Fatalf("owner approve: got %v, want ErrForbidden", err)
	}

	approved, err := svc.SetStatus(context.Background(), admin, res.ID, booking.StatusApproved)
	if err != nil {
		t.Fatalf("admin approve: %v", err)
	}
	if approved.Status != booking.StatusApproved {
		t.Fatalf("status = %s, want approved", approved.Status)
	}

	// Approved cannot go back to pending, and a failed transition must
	// leave the record untouched.
	if _, err := svc.SetStatus(context.Background(), admin, res.ID, booking.StatusPending); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("approved->pending: got %v, want ErrInvalidTransition", err)
	}
	got, err := rs.GetByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != booking.StatusApproved {
		t.Fatalf("status after failed transition = %s, want approved", got.Status)
	}
}

func TestCancelFreesTheSlot(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))

	cancelled, err := svc.Cancel(context.Background(), alice, res.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// The cancelled reservation no longer blocks the interval.
	mustCreate(t, svc, bob, 1, monday(10, 0), monday(11, 0))
}

func TestCheckAvailability(t *testing.T) {
	rs := newFakeReservationStore()
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})
	res := mustCreate(t, svc, alice, 1, monday(10, 0), monday(11, 0))

	busy, err := svc.CheckAvailability(context.Background(), 1, monday(10, 30), monday(11, 30))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if busy.Available || len(busy.Conflicting) != 1 || busy.Conflicting[0].ID != res.ID {
		t.Fatalf("expected one conflict, got %+v", busy)
	}

	free, err := svc.CheckAvailability(context.Background(), 1, monday(11, 0), monday(12, 0))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !free.Available || len(free.Conflicting) != 0 {
		t.Fatalf("expected boundary-touching interval to be free, got %+v", free)
	}

	if _, err := svc.Cancel(context.Background(), alice, res.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	after, err := svc.CheckAvailability(context.Background(), 1, monday(10, 30), monday(11, 30))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !after.Available {
		t.Fatalf("cancelled reservation still blocks: %+v", after)
	}
}

func TestStoreTimeoutMapsToUnavailable(t *testing.T) {
	rs := newFakeReservationStore()
	rs.err = context.DeadlineExceeded
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})

	_, err := svc.Create(context.Background(), alice, CreateInput{
		SpaceID:  1,
		StartsAt: monday(10, 0),
		EndsAt:   monday(11, 0),
		Purpose:  model.PurposeStudy,
	})
	if !errors.Is(err, booking.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestDeadlockMapsToUnavailable(t *testing.T) {
	rs := newFakeReservationStore()
	rs.err = errors.New("Error 1213: Deadlock found when trying to get lock")
	svc := newService(t, newFakeSpaceStore(openSpace()), rs, Options{})

	_, err := svc.Create(context.Background(), alice, CreateInput{
		SpaceID:  1,
		StartsAt: monday(10, 0),
		EndsAt:   monday(11, 0),
		Purpose:  model.PurposeStudy,
	})
	if !errors.Is(err, booking.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}
