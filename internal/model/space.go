package model

import (
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
)

// Space types stored in spaces.type.
const (
	SpaceClassroom   = "classroom"
	SpaceLab         = "lab"
	SpaceComputerLab = "computer_lab"
	SpaceAuditorium  = "auditorium"
	SpaceMeetingZone = "meeting_zone"
	SpaceOther       = "other"
)

// ValidSpaceType reports whether t is one of the space type enum values.
func ValidSpaceType(t string) bool {
	switch t {
	case SpaceClassroom, SpaceLab, SpaceComputerLab, SpaceAuditorium, SpaceMeetingZone, SpaceOther:
		return true
	}
	return false
}

// Equipment describes a piece of equipment installed in a space. It is
// descriptive only and never constrains a booking.
//
// Fields:
//  Name        – equipment name (e.g. "projector").
//  Quantity    – how many units, at least 1.
//  Description – optional free text.
type Equipment struct {
	Name        string `json:"name"`
	Quantity    uint32 `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// Space represents a bookable physical space (classroom, lab,
// auditorium...) as stored in the `spaces` table plus its child rows in
// `space_availability` and `space_equipment`.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – unique human name of the space.
//  Description  – free-text description.
//  Capacity     – positive number of people the space holds.
//  Type         – one of the Space* type constants.
//  Building     – building identifier of the location.
//  Floor        – floor number of the location.
//  Status       – available, maintenance or unavailable. Reservations
//                 are only accepted while available.
//  Availability – weekly booking windows per weekday.
//  Equipment    – descriptive equipment list.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Space struct {
	ID           uint64                 // spaces.id
	Name         string                 // spaces.name
	Description  string                 // spaces.description
	Capacity     uint32                 // spaces.capacity
	Type         string                 // spaces.type
	Building     string                 // spaces.building
	Floor        int32                  // spaces.floor
	Status       booking.SpaceStatus    // spaces.status
	Availability booking.WeeklySchedule // space_availability rows
	Equipment    []Equipment            // space_equipment rows
	CreatedAt    time.Time              // spaces.created_at
	UpdatedAt    time.Time              // spaces.updated_at
}
