package booking

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether s is absorbing: no transition may leave it.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Blocking reports whether a reservation in status s occupies its space
// for its interval. Rejected and cancelled reservations never block a
// new booking.
func (s Status) Blocking() bool {
	return s != StatusRejected && s != StatusCancelled
}

// transitions is the full edge table of the lifecycle state machine.
// Terminal statuses have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether from -> to is an edge of the lifecycle
// table, regardless of who asks.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AuthorizeTransition validates a status change requested by an actor.
// The role check runs before the edge check: a non-administrator may
// only ever target cancelled, and only on a reservation they own.
// Administrators may trigger any edge of the table. The returned error
// is ErrForbidden or ErrInvalidTransition; nil means the change is
// permitted.
func AuthorizeTransition(isAdmin, isOwner bool, from, to Status) error {
	if !isAdmin {
		if to != StatusCancelled || !isOwner {
			return ErrForbidden
		}
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
