package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Setting is one slow-changing configuration entry. Value is opaque JSON;
// callers that need a typed value unmarshal it themselves.
type Setting struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
	UpdatedBy   *uuid.UUID      `json:"updated_by,omitempty"`
}

// Well-known setting keys.
const (
	KeyRegistrationAmount  = "registration.amount"
	KeyConferenceName      = "conference.name"
	KeyConferenceVenue     = "conference.venue"
	KeyConferenceStartDate = "conference.start_date"
	KeyConferenceEndDate   = "conference.end_date"
	KeyConferenceTimezone  = "conference.timezone"
)
