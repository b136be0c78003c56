package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/registration/models"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// ErrProfileNotFound means no profile exists under the requested id.
var ErrProfileNotFound = dErrors.New(dErrors.CodeNotFound, "profile not found")

// ProfileStore is the persistence surface the registration service needs.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByPhone(ctx context.Context, phone string) (*models.Profile, error)
	DeclineAccreditation(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	PaymentStatusCounts(ctx context.Context) (map[models.PaymentStatus]int, error)
}

// Analytics is the admin registration summary.
type Analytics struct {
	Total    int                          `json:"total"`
	ByStatus map[models.PaymentStatus]int `json:"by_status"`
}

// Service owns profile creation and admin views over the registrant set.
type Service struct {
	profiles ProfileStore
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(profiles ProfileStore, opts ...Option) *Service {
	s := &Service{profiles: profiles, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProfile registers a new participant. Email and phone uniqueness is
// enforced by the store; violations come back as field-level conflicts.
func (s *Service) CreateProfile(ctx context.Context, email, phone, fullName, school string, role models.Role) (*models.Profile, error) {
	profile, err := models.NewProfile(uuid.New(), email, phone, fullName, school, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		var conflict *sentinel.FieldConflict
		if errors.As(err, &conflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "%s is already registered", conflict.Field).WithField(conflict.Field)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	s.logger.InfoContext(ctx, "profile created", "profile_id", profile.ID, "role", profile.Role)
	return profile, nil
}

// GetProfile returns a profile. Participants may only read their own;
// validators and admins may read any.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if principal.ID != id && !principal.Can(requestcontext.RoleValidator) {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot read another participant's profile")
	}
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// DeclineAccreditation is the admin-only pending → declined edge.
func (s *Service) DeclineAccreditation(ctx context.Context, id uuid.UUID) error {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !principal.Can(requestcontext.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "only admins may decline accreditation")
	}
	applied, err := s.profiles.DeclineAccreditation(ctx, id, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decline accreditation")
	}
	if !applied {
		return dErrors.New(dErrors.CodeConflict, "accreditation is not pending")
	}
	return nil
}

// RegistrationAnalytics summarizes payment progress for the admin dashboard.
func (s *Service) RegistrationAnalytics(ctx context.Context) (*Analytics, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !principal.Can(requestcontext.RoleAdmin) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins may view analytics")
	}
	counts, err := s.profiles.PaymentStatusCounts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load analytics")
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &Analytics{Total: total, ByStatus: counts}, nil
}
