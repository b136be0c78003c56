package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanType classifies a validator's scan action.
type ScanType string

const (
	ScanAccreditation ScanType = "accreditation"
	ScanBreakfast     ScanType = "breakfast"
	ScanDinner        ScanType = "dinner"
	ScanCheckIn       ScanType = "check_in"
	ScanSession       ScanType = "session"
)

func (t ScanType) Valid() bool {
	switch t {
	case ScanAccreditation, ScanBreakfast, ScanDinner, ScanCheckIn, ScanSession:
		return true
	}
	return false
}

// IsMeal reports whether the scan carries a per-day meal side effect.
func (t ScanType) IsMeal() bool {
	return t == ScanBreakfast || t == ScanDinner
}

// Scan is one append-only audit event. Rows are immutable once created:
// nothing in this codebase updates or deletes them, including failed or
// duplicate side effects.
type Scan struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ScannedBy uuid.UUID `json:"scanned_by"`
	Type      ScanType  `json:"scan_type"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MealValidationStatus marks a meal validation row's lifecycle.
type MealValidationStatus string

const (
	MealValidated MealValidationStatus = "validated"
	MealExpired   MealValidationStatus = "expired"
)

// MealValidation is the derived record behind meal idempotency: exactly one
// row may exist per (participant, meal type, date). Date is a calendar day in
// the conference timezone, formatted 2006-01-02.
type MealValidation struct {
	ID            uuid.UUID            `json:"id"`
	ParticipantID uuid.UUID            `json:"participant_id"`
	MealType      ScanType             `json:"meal_type"`
	Date          string               `json:"validation_date"`
	Status        MealValidationStatus `json:"status"`
	ValidatedAt   time.Time            `json:"validated_at"`
	ValidatorName string               `json:"validator_name"`
}

// AssignmentStatus tracks a validator's shift through its schedule.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
)

// ValidatorAssignment schedules a validator to a meal/location/date slot.
// Assignments are soft-deleted via DeletedAt rather than removed.
type ValidatorAssignment struct {
	ID           uuid.UUID        `json:"id"`
	ValidatorID  uuid.UUID        `json:"validator_id"`
	MealType     ScanType         `json:"meal_type"`
	Location     string           `json:"location"`
	ScheduleDate string           `json:"schedule_date"`
	ScheduleTime string           `json:"schedule_time"`
	Status       AssignmentStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	DeletedAt    *time.Time       `json:"deleted_at,omitempty"`
}

// ParticipantInfo is the display payload shown to a validator after a scan.
type ParticipantInfo struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone"`
	School   string    `json:"school"`
}

// Result reports a scan outcome. Success=false with a message is the
// expected shape for idempotency guards ("already accredited", "already
// validated"); the audit Scan row exists either way.
type Result struct {
	ScanID      uuid.UUID       `json:"scan_id"`
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	Participant ParticipantInfo `json:"participant"`
}
