// Package queue defines the message payloads exchanged over the broker
// and the background consumer that turns them into an audit trail.
package queue

// Event names carried in ReservationEvent.Event.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationApproved  = "reservation.approved"
	EventReservationRejected  = "reservation.rejected"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
)

// ReservationEvent is published whenever a reservation is created or
// changes status. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type ReservationEvent struct {
	Event         string `json:"event"`
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	SpaceID       uint64 `json:"space_id"`
	SpaceName     string `json:"space_name,omitempty"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
