package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/Onahi7/napps-sub001/internal/notify"
	regmodels "github.com/Onahi7/napps-sub001/internal/registration/models"
	scanmetrics "github.com/Onahi7/napps-sub001/internal/scan/metrics"
	"github.com/Onahi7/napps-sub001/internal/scan/models"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// ErrParticipantNotFound means the scanned subject resolves to no profile.
var ErrParticipantNotFound = dErrors.New(dErrors.CodeNotFound, "participant not found")

// defaultHistoryLimit bounds history listings; validators page through at
// most one meal window of activity at a time.
const defaultHistoryLimit = 200

// ProfileStore is the slice of profile persistence the scan engine needs.
type ProfileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*regmodels.Profile, error)
	FindByPhone(ctx context.Context, phone string) (*regmodels.Profile, error)
	CompleteAccreditation(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// ScanStore is the append-only audit trail.
type ScanStore interface {
	Append(ctx context.Context, scan *models.Scan) error
	ListByValidator(ctx context.Context, validatorID uuid.UUID, limit int) ([]*models.Scan, error)
	ListAll(ctx context.Context, limit int) ([]*models.Scan, error)
	ListBySubject(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Scan, error)
}

// MealValidationStore applies the per-day meal idempotency guard.
type MealValidationStore interface {
	InsertIfAbsent(ctx context.Context, mv *models.MealValidation) (bool, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.MealValidation, error)
	ExpireBefore(ctx context.Context, cutoffDate string) (int64, error)
}

// AssignmentStore serves validator schedules.
type AssignmentStore interface {
	Create(ctx context.Context, a *models.ValidatorAssignment) error
	ListUpcoming(ctx context.Context, validatorID uuid.UUID, fromDate string) ([]*models.ValidatorAssignment, error)
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error
	CompletePast(ctx context.Context, beforeDate string) (int64, error)
}

// Service is the scan/validation engine. A scan always appends its audit
// event; the scan-type side effect is applied in the same transaction, so the
// trail and the derived state can never diverge.
type Service struct {
	profiles    ProfileStore
	scans       ScanStore
	meals       MealValidationStore
	assignments AssignmentStore
	tx          tx.Runner
	notifier    notify.Publisher
	logger      *slog.Logger
	metrics     *scanmetrics.Metrics

	// loc fixes which calendar day a meal scan belongs to, independent of
	// server timezone.
	loc *time.Location
}

type Option func(*Service)

func WithNotifier(n notify.Publisher) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *scanmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(profiles ProfileStore, scans ScanStore, meals MealValidationStore, assignments AssignmentStore, txRunner tx.Runner, opts ...Option) *Service {
	s := &Service{
		profiles:    profiles,
		scans:       scans,
		meals:       meals,
		assignments: assignments,
		tx:          txRunner,
		notifier:    notify.NopPublisher{},
		logger:      slog.Default(),
		loc:         time.FixedZone("WAT", 3600),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var tracer = otel.Tracer("scan")

// RecordScan translates a validator's scan into durable state. The Scan
// audit row is appended unconditionally; only the side effect is guarded.
// Duplicate side effects come back as Success=false results, not errors, so
// the validator can show the participant's existing state.
func (s *Service) RecordScan(ctx context.Context, subjectRef string, scanType models.ScanType, location, notes string) (*models.Result, error) {
	ctx, span := tracer.Start(ctx, "RecordScan")
	defer span.End()

	principal, err := requireRole(ctx, requestcontext.RoleValidator)
	if err != nil {
		return nil, err
	}
	if !scanType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown scan type").WithField("scan_type")
	}

	subject, err := s.resolveSubject(ctx, subjectRef)
	if err != nil {
		return nil, err
	}

	validatorName, err := s.validatorName(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	result := &models.Result{
		Success: true,
		Participant: models.ParticipantInfo{
			ID:       subject.ID,
			FullName: subject.FullName,
			Phone:    subject.Phone,
			School:   subject.School,
		},
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		scan := &models.Scan{
			ID:        uuid.New(),
			UserID:    subject.ID,
			ScannedBy: principal.ID,
			Type:      scanType,
			Location:  strings.TrimSpace(location),
			Notes:     strings.TrimSpace(notes),
			CreatedAt: now,
		}
		if err := s.scans.Append(ctx, scan); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record scan")
		}
		result.ScanID = scan.ID

		switch {
		case scanType == models.ScanAccreditation:
			applied, err := s.profiles.CompleteAccreditation(ctx, subject.ID, now)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete accreditation")
			}
			if !applied {
				result.Success = false
				result.Message = "already accredited"
			}
		case scanType.IsMeal():
			inserted, err := s.meals.InsertIfAbsent(ctx, &models.MealValidation{
				ID:            uuid.New(),
				ParticipantID: subject.ID,
				MealType:      scanType,
				Date:          s.dateOf(now),
				Status:        models.MealValidated,
				ValidatedAt:   now,
				ValidatorName: validatorName,
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record meal validation")
			}
			if !inserted {
				result.Success = false
				result.Message = "already validated"
			}
		default:
			// check_in and session scans are audit-only.
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observe(ctx, scanType, result)
	return result, nil
}

// ScanHistory returns the caller's own scans for validators and the full
// trail for admins.
func (s *Service) ScanHistory(ctx context.Context) ([]*models.Scan, error) {
	principal, err := requireRole(ctx, requestcontext.RoleValidator)
	if err != nil {
		return nil, err
	}
	if principal.Role == requestcontext.RoleAdmin {
		scans, err := s.scans.ListAll(ctx, defaultHistoryLimit)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scans")
		}
		return scans, nil
	}
	scans, err := s.scans.ListByValidator(ctx, principal.ID, defaultHistoryLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scans")
	}
	return scans, nil
}

// Assignments lists a validator's upcoming schedule, today forward, ordered
// by date then time. Validators may only read their own schedule.
func (s *Service) Assignments(ctx context.Context, validatorID uuid.UUID) ([]*models.ValidatorAssignment, error) {
	principal, err := requireRole(ctx, requestcontext.RoleValidator)
	if err != nil {
		return nil, err
	}
	if principal.Role != requestcontext.RoleAdmin && principal.ID != validatorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "validators may only view their own assignments")
	}

	assignments, err := s.assignments.ListUpcoming(ctx, validatorID, s.dateOf(requestcontext.Now(ctx)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assignments")
	}
	return assignments, nil
}

// CreateAssignment schedules a validator shift (admin only).
func (s *Service) CreateAssignment(ctx context.Context, a *models.ValidatorAssignment) error {
	if _, err := requireRole(ctx, requestcontext.RoleAdmin); err != nil {
		return err
	}
	if !a.MealType.IsMeal() && a.MealType != models.ScanAccreditation {
		return dErrors.New(dErrors.CodeValidation, "assignment meal type must be a meal or accreditation").WithField("meal_type")
	}
	a.ID = uuid.New()
	a.Status = models.AssignmentPending
	a.CreatedAt = requestcontext.Now(ctx)
	if err := s.assignments.Create(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assignment")
	}
	return nil
}

// RemoveAssignment soft-deletes a shift (admin only).
func (s *Service) RemoveAssignment(ctx context.Context, id uuid.UUID) error {
	if _, err := requireRole(ctx, requestcontext.RoleAdmin); err != nil {
		return err
	}
	if err := s.assignments.SoftDelete(ctx, id, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "assignment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove assignment")
	}
	return nil
}

// SubjectHistory lists the scans recorded against one participant.
func (s *Service) SubjectHistory(ctx context.Context, participantID uuid.UUID) ([]*models.Scan, error) {
	if _, err := requireRole(ctx, requestcontext.RoleValidator); err != nil {
		return nil, err
	}
	scans, err := s.scans.ListBySubject(ctx, participantID, defaultHistoryLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participant scans")
	}
	return scans, nil
}

// MealValidations lists a participant's validation rows for review screens.
func (s *Service) MealValidations(ctx context.Context, participantID uuid.UUID) ([]*models.MealValidation, error) {
	if _, err := requireRole(ctx, requestcontext.RoleValidator); err != nil {
		return nil, err
	}
	out, err := s.meals.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list meal validations")
	}
	return out, nil
}

// ExpireStale closes out yesterday's validations and past assignments. The
// nightly cron owns the schedule; tests call it directly.
func (s *Service) ExpireStale(ctx context.Context) error {
	today := s.dateOf(requestcontext.Now(ctx))

	expired, err := s.meals.ExpireBefore(ctx, today)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire meal validations")
	}
	completed, err := s.assignments.CompletePast(ctx, today)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete past assignments")
	}
	s.logger.InfoContext(ctx, "expired stale validation state",
		"meal_validations_expired", expired,
		"assignments_completed", completed,
	)
	return nil
}

func (s *Service) resolveSubject(ctx context.Context, subjectRef string) (*regmodels.Profile, error) {
	subjectRef = strings.TrimSpace(subjectRef)
	if subjectRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject reference is required").WithField("subject")
	}

	var (
		subject *regmodels.Profile
		err     error
	)
	if id, parseErr := uuid.Parse(subjectRef); parseErr == nil {
		subject, err = s.profiles.FindByID(ctx, id)
	} else {
		// Phone lookup is exact match only.
		subject, err = s.profiles.FindByPhone(ctx, subjectRef)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve participant")
	}
	return subject, nil
}

func (s *Service) validatorName(ctx context.Context, validatorID uuid.UUID) (string, error) {
	validator, err := s.profiles.FindByID(ctx, validatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "validator profile not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load validator profile")
	}
	return validator.FullName, nil
}

func (s *Service) observe(ctx context.Context, scanType models.ScanType, result *models.Result) {
	if s.metrics != nil {
		s.metrics.RecordScan(string(scanType))
		if !result.Success {
			s.metrics.RecordDuplicate(string(scanType))
		}
	}
	if result.Success {
		switch {
		case scanType == models.ScanAccreditation:
			s.notifier.StateChanged(ctx, notify.Event{
				Kind:       notify.KindAccredited,
				ProfileID:  result.Participant.ID,
				OccurredAt: requestcontext.Now(ctx),
			})
		case scanType.IsMeal():
			s.notifier.StateChanged(ctx, notify.Event{
				Kind:       notify.KindMealValidated,
				ProfileID:  result.Participant.ID,
				OccurredAt: requestcontext.Now(ctx),
			})
		}
	}
}

func (s *Service) dateOf(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

// requireRole centralizes the per-entry-point capability check: missing
// principal is unauthorized, wrong role is forbidden, admins pass every gate.
func requireRole(ctx context.Context, role requestcontext.Role) (requestcontext.AuthPrincipal, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return principal, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !principal.Can(role) {
		return principal, dErrors.New(dErrors.CodeForbidden, "insufficient role for this action")
	}
	return principal, nil
}
