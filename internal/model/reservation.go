package model

import (
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
)

// Purposes stored in reservations.purpose.
const (
	PurposeClass   = "class"
	PurposeMeeting = "meeting"
	PurposeEvent   = "event"
	PurposeStudy   = "study"
	PurposeOther   = "other"
)

// ValidPurpose reports whether p is one of the purpose enum values.
func ValidPurpose(p string) bool {
	switch p {
	case PurposeClass, PurposeMeeting, PurposeEvent, PurposeStudy, PurposeOther:
		return true
	}
	return false
}

// MaxDescriptionLen bounds reservations.description.
const MaxDescriptionLen = 500

// Reservation records a user's booking of a space for a half-open time
// interval [StartsAt, EndsAt). UserID and SpaceID never change after
// creation; the interval may change while the reservation is pending or
// approved, and Status only moves along the lifecycle edges.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – requester who owns the reservation.
//  SpaceID     – space being reserved.
//  StartsAt    – start instant (inclusive), UTC.
//  EndsAt      – end instant (exclusive), UTC; strictly after StartsAt.
//  Purpose     – one of the Purpose* constants.
//  Description – optional free text, at most MaxDescriptionLen chars.
//  Attendees   – optional expected head count, at least 1 when set.
//  Status      – lifecycle status, pending on creation.
//  CreatedAt   – set once at creation.
//  UpdatedAt   – timestamp of last update.
type Reservation struct {
	ID          uint64         // reservations.id
	UserID      uint64         // reservations.user_id
	SpaceID     uint64         // reservations.space_id
	StartsAt    time.Time      // reservations.starts_at
	EndsAt      time.Time      // reservations.ends_at
	Purpose     string         // reservations.purpose
	Description string         // reservations.description
	Attendees   *uint32        // reservations.attendees (nullable)
	Status      booking.Status // reservations.status
	CreatedAt   time.Time      // reservations.created_at
	UpdatedAt   time.Time      // reservations.updated_at
}

// Interval returns the reservation's half-open booking interval.
func (r Reservation) Interval() booking.Interval {
	return booking.Interval{Start: r.StartsAt, End: r.EndsAt}
}

// Booked returns the conflict-checker view of the reservation.
func (r Reservation) Booked() booking.Booked {
	return booking.Booked{ID: r.ID, Interval: r.Interval(), Status: r.Status}
}
