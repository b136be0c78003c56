package models

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
)

// Profile is the aggregate root for a registrant.
//
// Invariants:
//   - Email and Phone are unique across profiles (enforced by storage)
//   - PaymentReference is assigned exactly once and never changes
//   - PaymentStatus follows the forward chain in status.go; completed is terminal
//   - AccreditationStatus pending → completed is one-way; declined only via an
//     explicit admin action, never via scanning
//
// The payment guard checks live here as Can*/Apply* pairs so the memory store's
// Execute callbacks and the postgres store's conditional UPDATEs enforce the
// same rules.
type Profile struct {
	ID                  uuid.UUID           `json:"id"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	FullName            string              `json:"full_name"`
	School              string              `json:"school"`
	Role                Role                `json:"role"`
	PaymentStatus       PaymentStatus       `json:"payment_status"`
	PaymentReference    string              `json:"payment_reference,omitempty"`
	PaymentAmount       int64               `json:"payment_amount"`
	PaymentProof        string              `json:"payment_proof,omitempty"`
	PaymentCompletedAt  *time.Time          `json:"payment_completed_at,omitempty"`
	AccreditationStatus AccreditationStatus `json:"accreditation_status"`
	AccreditationDate   *time.Time          `json:"accreditation_date,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// NewProfile validates identity fields and returns a participant profile in
// its initial payment and accreditation states.
func NewProfile(id uuid.UUID, email, phone, fullName, school string, role Role, now time.Time) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	fullName = strings.TrimSpace(fullName)

	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required").WithField("full_name")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address").WithField("email")
	}
	if !phonePattern.MatchString(phone) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid phone number").WithField("phone")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role").WithField("role")
	}

	return &Profile{
		ID:                  id,
		Email:               email,
		Phone:               phone,
		FullName:            fullName,
		School:              strings.TrimSpace(school),
		Role:                role,
		PaymentStatus:       PaymentNotRegistered,
		AccreditationStatus: AccreditationPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// CanInitializePayment rejects initialization on completed profiles.
func (p *Profile) CanInitializePayment() error {
	if p.PaymentStatus == PaymentCompleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "payment already completed")
	}
	return nil
}

// ApplyInitialization assigns the reference (once) and moves to pending,
// clearing any stale proof. Call CanInitializePayment first.
func (p *Profile) ApplyInitialization(reference string, amount int64, now time.Time) {
	if p.PaymentReference == "" {
		p.PaymentReference = reference
	}
	p.PaymentStatus = PaymentPending
	p.PaymentAmount = amount
	p.PaymentProof = ""
	p.UpdatedAt = now
}

// CanSubmitProof rejects proof submission on completed profiles.
func (p *Profile) CanSubmitProof() error {
	if p.PaymentStatus == PaymentCompleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "payment already completed")
	}
	return nil
}

// ApplySubmitProof records the proof locator and flips to proof_submitted in
// one step; readers never observe one without the other.
func (p *Profile) ApplySubmitProof(reference, proofLocator string, now time.Time) {
	if p.PaymentReference == "" {
		p.PaymentReference = reference
	}
	p.PaymentProof = proofLocator
	p.PaymentStatus = PaymentProofSubmitted
	p.UpdatedAt = now
}

// CanVerify rejects a second verification: a repeat verify signals a
// double-credit bug upstream, so it must fail loudly rather than no-op.
func (p *Profile) CanVerify() error {
	if p.PaymentStatus == PaymentCompleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "payment already verified")
	}
	return nil
}

// ApplyVerification completes the payment and stamps the completion time.
func (p *Profile) ApplyVerification(now time.Time) {
	p.PaymentStatus = PaymentCompleted
	p.PaymentCompletedAt = &now
	p.UpdatedAt = now
}

// CanReject allows the single backward edge proof_submitted → pending.
func (p *Profile) CanReject() error {
	if !p.PaymentStatus.CanTransitionTo(PaymentPending) || p.PaymentStatus != PaymentProofSubmitted {
		return dErrors.New(dErrors.CodeInvariantViolation, "only submitted proofs can be rejected")
	}
	return nil
}

// ApplyRejection resets the status and clears the proof locator. The caller
// owns best-effort deletion of the stored artifact.
func (p *Profile) ApplyRejection(now time.Time) {
	p.PaymentStatus = PaymentPending
	p.PaymentProof = ""
	p.UpdatedAt = now
}

// CanAccredit allows the one-way pending → completed accreditation edge.
func (p *Profile) CanAccredit() error {
	if p.AccreditationStatus != AccreditationPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "accreditation is not pending")
	}
	return nil
}

// ApplyAccreditation completes accreditation and stamps the date.
func (p *Profile) ApplyAccreditation(now time.Time) {
	p.AccreditationStatus = AccreditationCompleted
	p.AccreditationDate = &now
	p.UpdatedAt = now
}
