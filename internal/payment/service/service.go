//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks GatewayVerifier,ProofStorage
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	paymentmetrics "github.com/Onahi7/napps-sub001/internal/payment/metrics"
	"github.com/Onahi7/napps-sub001/internal/notify"
	"github.com/Onahi7/napps-sub001/internal/registration/models"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// Failure identities callers branch on. Returned directly so errors.Is works.
var (
	// ErrAlreadyCompleted rejects initialization or proof submission on a
	// completed profile.
	ErrAlreadyCompleted = dErrors.New(dErrors.CodeConflict, "payment already completed")
	// ErrAlreadyVerified rejects a second verification. It is a hard error,
	// not a soft no-op: a repeat verify signals a double-credit bug upstream.
	ErrAlreadyVerified = dErrors.New(dErrors.CodeConflict, "payment already verified")
	// ErrReferenceNotFound means no profile owns the given reference.
	ErrReferenceNotFound = dErrors.New(dErrors.CodeNotFound, "payment reference not found")
	// ErrDuplicateReference surfaces the storage uniqueness backstop on
	// reference generation; the operation is safe to retry.
	ErrDuplicateReference = dErrors.New(dErrors.CodeConflict, "duplicate payment reference, retry")
)

// WhatsappProofSentinel is accepted as a proof locator for participants who
// sent their proof over WhatsApp instead of uploading a file.
const WhatsappProofSentinel = "whatsapp"

// ProfileStore is the slice of profile persistence the state machine needs.
type ProfileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByReference(ctx context.Context, reference string) (*models.Profile, error)
	FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Profile, error)
	UpdatePayment(ctx context.Context, p *models.Profile) error
}

// GatewayVerifier is the external payment gateway confirmation contract. The
// core only acts on StatusSuccess; anything else leaves state untouched.
type GatewayVerifier interface {
	Verify(ctx context.Context, reference string) (VerificationResult, error)
}

// VerificationResult is the gateway's answer for a reference.
type VerificationResult struct {
	Status   string
	Amount   int64
	PaidAt   time.Time
	Metadata map[string]string
}

// StatusSuccess is the only gateway status that triggers completion.
const StatusSuccess = "success"

// ProofStorage deletes stored proof artifacts. Deletion is best-effort: a
// failure is logged and never aborts the status reset that triggered it.
type ProofStorage interface {
	Delete(ctx context.Context, locator string) (bool, error)
}

// Service is the payment state machine. Every guarded read-branch-write runs
// inside one transaction with the subject row locked, so concurrent admins,
// validators, and uploaders cannot interleave between guard and write.
type Service struct {
	profiles       ProfileStore
	tx             tx.Runner
	gateway        GatewayVerifier
	proofStorage   ProofStorage
	notifier       notify.Publisher
	logger         *slog.Logger
	metrics        *paymentmetrics.Metrics
	gatewayTimeout time.Duration
}

// Option configures optional collaborators.
type Option func(*Service)

func WithGateway(g GatewayVerifier, timeout time.Duration) Option {
	return func(s *Service) {
		s.gateway = g
		if timeout > 0 {
			s.gatewayTimeout = timeout
		}
	}
}

func WithProofStorage(ps ProofStorage) Option {
	return func(s *Service) { s.proofStorage = ps }
}

func WithNotifier(n notify.Publisher) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *paymentmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(profiles ProfileStore, txRunner tx.Runner, opts ...Option) *Service {
	s := &Service{
		profiles:       profiles,
		tx:             txRunner,
		notifier:       notify.NopPublisher{},
		logger:         slog.Default(),
		gatewayTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var tracer = otel.Tracer("payment")

// InitializePayment moves a profile to pending and returns its payment
// reference, assigning one exactly once. Calling it again returns the same
// reference; calling it on a completed profile fails with ErrAlreadyCompleted.
func (s *Service) InitializePayment(ctx context.Context, profileID uuid.UUID, amount int64) (string, error) {
	ctx, span := tracer.Start(ctx, "InitializePayment")
	defer span.End()

	if amount <= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "payment amount must be positive").WithField("amount")
	}

	var reference string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.profiles.FindByIDForUpdate(ctx, profileID)
		if err != nil {
			return wrapProfileErr(err)
		}
		if err := p.CanInitializePayment(); err != nil {
			return ErrAlreadyCompleted
		}
		now := requestcontext.Now(ctx)
		if p.PaymentReference == "" {
			p.ApplyInitialization(newReference(now), amount, now)
		} else {
			p.ApplyInitialization(p.PaymentReference, amount, now)
		}
		if err := s.profiles.UpdatePayment(ctx, p); err != nil {
			return wrapReferenceErr(err)
		}
		reference = p.PaymentReference
		return nil
	})
	if err != nil {
		return "", err
	}

	if s.metrics != nil {
		s.metrics.Initialized.Inc()
	}
	return reference, nil
}

// SubmitProof records the proof locator and flips the status to
// proof_submitted atomically; a concurrent reader never observes one without
// the other. Accepts the WhatsApp sentinel in place of an upload URL.
func (s *Service) SubmitProof(ctx context.Context, profileID uuid.UUID, proofLocator string) error {
	ctx, span := tracer.Start(ctx, "SubmitProof")
	defer span.End()

	proofLocator = strings.TrimSpace(proofLocator)
	if proofLocator == "" {
		return dErrors.New(dErrors.CodeValidation, "proof locator is required").WithField("payment_proof")
	}

	var p *models.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.profiles.FindByIDForUpdate(ctx, profileID)
		if err != nil {
			return wrapProfileErr(err)
		}
		if err := p.CanSubmitProof(); err != nil {
			return ErrAlreadyCompleted
		}
		now := requestcontext.Now(ctx)
		ref := p.PaymentReference
		if ref == "" {
			ref = newReference(now)
		}
		p.ApplySubmitProof(ref, proofLocator, now)
		if err := s.profiles.UpdatePayment(ctx, p); err != nil {
			return wrapReferenceErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ProofsSubmitted.Inc()
	}
	s.notifier.StateChanged(ctx, notify.Event{
		Kind:       notify.KindProofSubmitted,
		ProfileID:  p.ID,
		Reference:  p.PaymentReference,
		OccurredAt: requestcontext.Now(ctx),
	})
	return nil
}

// VerifyPayment is the admin-facing confirmation. Exactly one of any set of
// concurrent calls for the same reference wins; losers observe
// ErrAlreadyVerified because the guard reads the row under the same lock the
// winner wrote through.
func (s *Service) VerifyPayment(ctx context.Context, reference string) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "VerifyPayment")
	defer span.End()
	start := time.Now()

	var p *models.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.profiles.FindByReferenceForUpdate(ctx, reference)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return ErrReferenceNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment reference")
		}
		if err := p.CanVerify(); err != nil {
			return ErrAlreadyVerified
		}
		p.ApplyVerification(requestcontext.Now(ctx))
		return s.profiles.UpdatePayment(ctx, p)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyVerified) && s.metrics != nil {
			s.metrics.VerifyConflicts.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Verified.Inc()
		s.metrics.ObserveVerify(start)
	}
	s.notifier.StateChanged(ctx, notify.Event{
		Kind:       notify.KindPaymentVerified,
		ProfileID:  p.ID,
		Reference:  reference,
		OccurredAt: requestcontext.Now(ctx),
	})
	return p, nil
}

// VerifyWithGateway asks the external gateway about a reference and completes
// the payment only on a definitive success answer. A gateway timeout or error
// is retryable and mutates nothing.
func (s *Service) VerifyWithGateway(ctx context.Context, reference string) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "VerifyWithGateway")
	defer span.End()

	if s.gateway == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "payment gateway is not configured")
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	result, err := s.gateway.Verify(gwCtx, reference)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway verification failed")
	}
	if result.Status != StatusSuccess {
		return nil, dErrors.Newf(dErrors.CodeConflict, "gateway reports payment status %q", result.Status)
	}

	return s.VerifyPayment(ctx, reference)
}

// RejectPayment resets a submitted proof back to pending and clears the
// proof locator. The stored artifact is deleted best-effort after commit;
// a storage failure is logged, never propagated.
func (s *Service) RejectPayment(ctx context.Context, reference string) error {
	ctx, span := tracer.Start(ctx, "RejectPayment")
	defer span.End()

	var oldProof string
	var profileID uuid.UUID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.profiles.FindByReferenceForUpdate(ctx, reference)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return ErrReferenceNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment reference")
		}
		if err := p.CanReject(); err != nil {
			return err
		}
		oldProof = p.PaymentProof
		profileID = p.ID
		p.ApplyRejection(requestcontext.Now(ctx))
		return s.profiles.UpdatePayment(ctx, p)
	})
	if err != nil {
		return err
	}

	s.deleteProofArtifact(ctx, oldProof)

	if s.metrics != nil {
		s.metrics.Rejected.Inc()
	}
	s.notifier.StateChanged(ctx, notify.Event{
		Kind:       notify.KindPaymentRejected,
		ProfileID:  profileID,
		Reference:  reference,
		OccurredAt: requestcontext.Now(ctx),
	})
	return nil
}

// GetByReference exposes a read-only lookup for admin review screens.
func (s *Service) GetByReference(ctx context.Context, reference string) (*models.Profile, error) {
	p, err := s.profiles.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrReferenceNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment reference")
	}
	return p, nil
}

func (s *Service) deleteProofArtifact(ctx context.Context, locator string) {
	if s.proofStorage == nil || locator == "" || locator == WhatsappProofSentinel {
		return
	}
	if _, err := s.proofStorage.Delete(ctx, locator); err != nil {
		s.logger.WarnContext(ctx, "failed to delete rejected proof artifact",
			"error", err,
			"locator", locator,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func wrapProfileErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
}

func wrapReferenceErr(err error) error {
	var fc *sentinel.FieldConflict
	if errors.As(err, &fc) && fc.Field == "payment_reference" {
		return ErrDuplicateReference
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "profile update conflicted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update payment state")
}
