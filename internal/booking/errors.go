// Package booking contains the reservation engine: time intervals,
// conflict detection, availability-window validation and the status
// lifecycle. Everything in this package is pure; persistence and
// transport live elsewhere.
package booking

import "errors"

// Sentinel errors returned by the engine and by the service layer built
// on top of it. Handlers compare with errors.Is and translate each kind
// into an HTTP status.
var (
	// ErrInvalidInterval is returned when an interval's end does not
	// come strictly after its start.
	ErrInvalidInterval = errors.New("invalid interval: end must be after start")

	// ErrConflict is returned when a candidate interval overlaps a
	// blocking reservation for the same space.
	ErrConflict = errors.New("interval conflicts with an existing reservation")

	// ErrOutOfSchedule is returned when a candidate interval falls
	// outside the space's availability windows or the space is not
	// accepting reservations.
	ErrOutOfSchedule = errors.New("interval outside the space availability schedule")

	// ErrInvalidTransition is returned when a status change does not
	// follow an edge of the lifecycle table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the actor lacks the rights for the
	// requested mutation.
	ErrForbidden = errors.New("forbidden")

	// ErrSpaceNotFound and ErrReservationNotFound report missing
	// records referenced by an operation.
	ErrSpaceNotFound       = errors.New("space not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrSpaceInUse is returned when a space cannot be removed because
	// blocking reservations still reference it.
	ErrSpaceInUse = errors.New("space has active reservations")

	// ErrUnavailable is returned when the store timed out or aborted a
	// transaction. It is the only retryable kind; callers may retry
	// with backoff.
	ErrUnavailable = errors.New("store unavailable, retry later")
)
