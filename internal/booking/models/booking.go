package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus tracks a hotel booking through its lifecycle.
type BookingStatus string

const (
	BookingReserved  BookingStatus = "reserved"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// CanTransitionTo enforces the booking edges: reserved may confirm or
// cancel, confirmed may only cancel, cancelled is terminal.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	switch s {
	case BookingReserved:
		return target == BookingConfirmed || target == BookingCancelled
	case BookingConfirmed:
		return target == BookingCancelled
	}
	return false
}

// Booking is one hotel reservation owned by a participant. Dates are
// calendar days formatted 2006-01-02.
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	ParticipantID uuid.UUID     `json:"participant_id"`
	HotelName     string        `json:"hotel_name"`
	RoomType      string        `json:"room_type,omitempty"`
	CheckIn       string        `json:"check_in"`
	CheckOut      string        `json:"check_out"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
