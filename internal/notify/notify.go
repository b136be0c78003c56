// Package notify carries the fire-and-forget revalidation hook: a signal that
// a committed state change happened, so dependent views can refresh. Delivery
// failure is logged and never affects the transaction that already committed.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted after committed state changes.
const (
	KindPaymentVerified  = "payment.verified"
	KindPaymentRejected  = "payment.rejected"
	KindProofSubmitted   = "payment.proof_submitted"
	KindAccredited       = "accreditation.completed"
	KindMealValidated    = "meal.validated"
	KindSettingsChanged  = "settings.changed"
)

// Event describes one committed state change.
type Event struct {
	Kind       string    `json:"kind"`
	ProfileID  uuid.UUID `json:"profile_id,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	Key        string    `json:"key,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher signals state changes. Implementations must not block the caller
// beyond enqueueing and must never return delivery errors into request paths.
type Publisher interface {
	StateChanged(ctx context.Context, event Event)
}

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) StateChanged(context.Context, Event) {}

// LogPublisher writes events to the log; useful in dev environments.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) StateChanged(ctx context.Context, event Event) {
	p.Logger.InfoContext(ctx, "state changed",
		"kind", event.Kind,
		"profile_id", event.ProfileID,
		"reference", event.Reference,
	)
}
