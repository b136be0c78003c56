package models

// PaymentStatus is the payment lifecycle position of a profile.
//
// Transitions only move forward along
// not_registered → pending → proof_submitted → completed, with one exception:
// an admin rejection resets proof_submitted → pending. Completed is terminal.
type PaymentStatus string

const (
	PaymentNotRegistered  PaymentStatus = "not_registered"
	PaymentPending        PaymentStatus = "pending"
	PaymentProofSubmitted PaymentStatus = "proof_submitted"
	PaymentCompleted      PaymentStatus = "completed"
)

// rank orders the forward chain for transition checks.
func (s PaymentStatus) rank() int {
	switch s {
	case PaymentNotRegistered:
		return 0
	case PaymentPending:
		return 1
	case PaymentProofSubmitted:
		return 2
	case PaymentCompleted:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == PaymentCompleted {
		return false
	}
	// Admin rejection is the single backward edge.
	if s == PaymentProofSubmitted && next == PaymentPending {
		return true
	}
	return next.rank() > s.rank()
}

func (s PaymentStatus) Valid() bool { return s.rank() >= 0 }

// AccreditationStatus is the on-site check-in state of a profile.
type AccreditationStatus string

const (
	AccreditationPending   AccreditationStatus = "pending"
	AccreditationCompleted AccreditationStatus = "completed"
	AccreditationDeclined  AccreditationStatus = "declined"
)

// Role is the profile's capability set, mirrored into issued tokens.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleValidator   Role = "validator"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleValidator, RoleAdmin:
		return true
	}
	return false
}
