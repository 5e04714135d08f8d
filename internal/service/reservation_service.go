// Package service orchestrates the booking engine against the stores:
// it runs schedule validation and conflict detection, drives the status
// lifecycle, and publishes status events after successful commits.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
	"github.com/iliyamo/campus-space-reservation/internal/queue"
)

// SpaceStore is the space lookup the service needs.
type SpaceStore interface {
	GetByID(ctx context.Context, id uint64) (model.Space, error)
}

// ReservationStore is the persistence contract for reservations. The
// two *IfNoConflict operations must execute their overlap check and the
// write as a single atomic unit; a concurrent competing write may never
// observe the check and the insert as separate steps.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	FindBlocking(ctx context.Context, spaceID, excludeID uint64) ([]model.Reservation, error)
	CreateIfNoConflict(ctx context.Context, res *model.Reservation) error
	UpdateIntervalIfNoConflict(ctx context.Context, id uint64, iv booking.Interval) (model.Reservation, error)
	CompareAndSetStatus(ctx context.Context, id uint64, expected, next booking.Status) error
}

// Publisher delivers a reservation event to the broker. Failures are
// the publisher's problem; the service never fails a request over a
// lost event.
type Publisher func(ctx context.Context, ev queue.ReservationEvent)

// ReservationService implements the reservation operations: create,
// interval update, status transition and availability queries.
type ReservationService struct {
	spaces          SpaceStore
	reservations    ReservationStore
	publish         Publisher
	enforceSchedule bool
	loc             *time.Location
	storeTimeout    time.Duration
	now             func() time.Time
}

// Options tunes a ReservationService.
type Options struct {
	// EnforceSchedule turns availability-window validation on or off.
	// The space status gate (only available spaces accept bookings)
	// applies regardless.
	EnforceSchedule bool
	// Location resolves wall-clock weekdays and window containment.
	// Defaults to UTC.
	Location *time.Location
	// StoreTimeout bounds every store call. Defaults to 5s.
	StoreTimeout time.Duration
	// Publish, when set, receives an event after every successful
	// creation or status change.
	Publish Publisher
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewReservationService wires the service. Both stores must be non-nil.
func NewReservationService(spaces SpaceStore, reservations ReservationStore, opts Options) *ReservationService {
	if spaces == nil || reservations == nil {
		panic("nil store passed to NewReservationService")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		spaces:          spaces,
		reservations:    reservations,
		publish:         opts.Publish,
		enforceSchedule: opts.EnforceSchedule,
		loc:             loc,
		storeTimeout:    timeout,
		now:             now,
	}
}

// CreateInput carries the validated fields of a creation request.
type CreateInput struct {
	SpaceID     uint64
	StartsAt    time.Time
	EndsAt      time.Time
	Purpose     string
	Description string
	Attendees   *uint32
}

// Create books a space for the requester. It validates the interval
// invariant, gates on the space's schedule and status, checks the
// candidate against all blocking reservations and persists a new
// pending reservation atomically with that check. The possible errors
// are booking.ErrInvalidInterval, booking.ErrSpaceNotFound,
// booking.ErrOutOfSchedule, booking.ErrConflict and
// booking.ErrUnavailable.
func (s *ReservationService) Create(ctx context.Context, requester model.Actor, in CreateInput) (model.Reservation, error) {
	iv, err := booking.NewInterval(in.StartsAt.UTC(), in.EndsAt.UTC())
	if err != nil {
		return model.Reservation{}, err
	}

	space, err := s.loadSpace(ctx, in.SpaceID)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := s.checkSchedule(space, iv); err != nil {
		return model.Reservation{}, err
	}

	res := model.Reservation{
		UserID:      requester.UserID,
		SpaceID:     in.SpaceID,
		StartsAt:    iv.Start,
		EndsAt:      iv.End,
		Purpose:     in.Purpose,
		Description: in.Description,
		Attendees:   in.Attendees,
		Status:      booking.StatusPending,
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.reservations.CreateIfNoConflict(sctx, &res); err != nil {
		return model.Reservation{}, mapStoreErr(err)
	}

	s.emit(queue.EventReservationCreated, res, space.Name)
	return res, nil
}

// UpdateInterval swaps a reservation's time interval. Only the owner or
// an administrator may do it, only while the reservation is pending or
// approved, and the new interval re-runs schedule and conflict checks
// with the reservation's own record excluded from the comparison set.
func (s *ReservationService) UpdateInterval(ctx context.Context, requester model.Actor, reservationID uint64, startsAt, endsAt time.Time) (model.Reservation, error) {
	iv, err := booking.NewInterval(startsAt.UTC(), endsAt.UTC())
	if err != nil {
		return model.Reservation{}, err
	}

	res, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if !requester.IsAdmin() && requester.UserID != res.UserID {
		return model.Reservation{}, booking.ErrForbidden
	}
	if res.Status != booking.StatusPending && res.Status != booking.StatusApproved {
		return model.Reservation{}, booking.ErrInvalidTransition
	}

	space, err := s.loadSpace(ctx, res.SpaceID)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := s.checkSchedule(space, iv); err != nil {
		return model.Reservation{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	updated, err := s.reservations.UpdateIntervalIfNoConflict(sctx, reservationID, iv)
	if err != nil {
		return model.Reservation{}, mapStoreErr(err)
	}
	return updated, nil
}

// SetStatus moves a reservation along one lifecycle edge on behalf of
// the actor. The role check runs before the edge check, and the write
// is a compare-and-set on the status read here, so concurrent admin
// actions cannot silently overwrite each other.
func (s *ReservationService) SetStatus(ctx context.Context, actor model.Actor, reservationID uint64, next booking.Status) (model.Reservation, error) {
	if !next.Valid() {
		return model.Reservation{}, booking.ErrInvalidTransition
	}

	res, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := booking.AuthorizeTransition(actor.IsAdmin(), actor.UserID == res.UserID, res.Status, next); err != nil {
		return model.Reservation{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.reservations.CompareAndSetStatus(sctx, reservationID, res.Status, next); err != nil {
		return model.Reservation{}, mapStoreErr(err)
	}
	res.Status = next

	s.emit(statusEventName(next), res, "")
	return res, nil
}

// Cancel is owner-facing sugar for SetStatus(..., cancelled).
func (s *ReservationService) Cancel(ctx context.Context, actor model.Actor, reservationID uint64) (model.Reservation, error) {
	return s.SetStatus(ctx, actor, reservationID, booking.StatusCancelled)
}

// Availability is the answer to a read-only availability query.
type Availability struct {
	Available   bool
	Conflicting []model.Reservation
}

// CheckAvailability reports whether the interval could be booked right
// now and which blocking reservations stand in the way. It performs no
// mutation and takes no locks; the write path is what prevents
// overbooking.
func (s *ReservationService) CheckAvailability(ctx context.Context, spaceID uint64, startsAt, endsAt time.Time) (Availability, error) {
	iv, err := booking.NewInterval(startsAt.UTC(), endsAt.UTC())
	if err != nil {
		return Availability{}, err
	}

	space, err := s.loadSpace(ctx, spaceID)
	if err != nil {
		return Availability{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	existing, err := s.reservations.FindBlocking(sctx, spaceID, 0)
	cancel()
	if err != nil {
		return Availability{}, mapStoreErr(err)
	}

	booked := make([]booking.Booked, len(existing))
	byID := make(map[uint64]model.Reservation, len(existing))
	for i, r := range existing {
		booked[i] = r.Booked()
		byID[r.ID] = r
	}

	conflicting := make([]model.Reservation, 0)
	for _, b := range booking.Conflicts(iv, booked, 0) {
		conflicting = append(conflicting, byID[b.ID])
	}

	available := len(conflicting) == 0 && s.checkSchedule(space, iv) == nil
	return Availability{Available: available, Conflicting: conflicting}, nil
}

// checkSchedule gates a candidate on the space status and, when
// enforcement is on, the weekly availability windows.
func (s *ReservationService) checkSchedule(space model.Space, iv booking.Interval) error {
	if !s.enforceSchedule {
		// Window enforcement is off, but a space in maintenance or
		// marked unavailable still rejects every candidate.
		if space.Status != booking.SpaceAvailable {
			return booking.ErrOutOfSchedule
		}
		return nil
	}
	if !booking.WithinSchedule(space.Status, space.Availability, iv, s.loc) {
		return booking.ErrOutOfSchedule
	}
	return nil
}

func (s *ReservationService) loadSpace(ctx context.Context, id uint64) (model.Space, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	space, err := s.spaces.GetByID(sctx, id)
	if err != nil {
		return model.Space{}, mapStoreErr(err)
	}
	return space, nil
}

func (s *ReservationService) loadReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	res, err := s.reservations.GetByID(sctx, id)
	if err != nil {
		return model.Reservation{}, mapStoreErr(err)
	}
	return res, nil
}

func (s *ReservationService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// emit hands an event to the publisher without blocking the request.
// The publish runs under its own storeTimeout-bounded context so a
// stalled broker cannot pin the goroutine.
func (s *ReservationService) emit(name string, res model.Reservation, spaceName string) {
	if s.publish == nil {
		return
	}
	ev := queue.ReservationEvent{
		Event:         name,
		ReservationID: res.ID,
		UserID:        res.UserID,
		SpaceID:       res.SpaceID,
		SpaceName:     spaceName,
		StartsAt:      res.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        res.EndsAt.UTC().Format(time.RFC3339),
		Status:        string(res.Status),
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
		defer cancel()
		s.publish(ctx, ev)
	}()
}

func statusEventName(status booking.Status) string {
	switch status {
	case booking.StatusApproved:
		return queue.EventReservationApproved
	case booking.StatusRejected:
		return queue.EventReservationRejected
	case booking.StatusCancelled:
		return queue.EventReservationCancelled
	case booking.StatusCompleted:
		return queue.EventReservationCompleted
	}
	return "reservation." + string(status)
}

// mapStoreErr normalizes store failures: engine sentinels pass through
// untouched, timeouts and aborted transactions become the retryable
// booking.ErrUnavailable.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrSpaceNotFound),
		errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, booking.ErrInvalidTransition):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return booking.ErrUnavailable
	}
	// MySQL deadlock (1213) and lock wait timeout (1205) abort the
	// transaction; both are safe to retry.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "1213") || strings.Contains(msg, "1205") || strings.Contains(msg, "deadlock") {
		return booking.ErrUnavailable
	}
	return err
}
