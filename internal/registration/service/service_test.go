package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Onahi7/napps-sub001/internal/registration/models"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

type RegistrationServiceSuite struct {
	suite.Suite
	store *profilestore.MemoryStore
	svc   *Service
	ctx   context.Context
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.store = profilestore.NewMemory()
	s.svc = New(s.store)
	s.ctx = context.Background()
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) asAdmin() context.Context {
	return requestcontext.WithPrincipal(s.ctx, requestcontext.AuthPrincipal{
		ID: uuid.New(), Role: requestcontext.RoleAdmin,
	})
}

func (s *RegistrationServiceSuite) TestCreateProfile() {
	s.Run("creates a participant", func() {
		p, err := s.svc.CreateProfile(s.ctx, "ada@school.example", "+2348012345678", "Ada Obi", "Unity College", models.RoleParticipant)
		s.Require().NoError(err)
		s.Equal(models.PaymentNotRegistered, p.PaymentStatus)
	})

	s.Run("duplicate email maps to a field conflict", func() {
		_, err := s.svc.CreateProfile(s.ctx, "ada@school.example", "+2348099999999", "Ada Again", "", models.RoleParticipant)
		s.Require().True(dErrors.Is(err, dErrors.CodeConflict))
		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Equal("email", de.Field)
	})

	s.Run("duplicate phone maps to a field conflict", func() {
		_, err := s.svc.CreateProfile(s.ctx, "other@school.example", "+2348012345678", "Obi Ada", "", models.RoleParticipant)
		s.Require().True(dErrors.Is(err, dErrors.CodeConflict))
		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Equal("phone", de.Field)
	})

	s.Run("invalid input surfaces validation errors", func() {
		_, err := s.svc.CreateProfile(s.ctx, "bad-email", "+2348011111111", "Name", "", models.RoleParticipant)
		s.Require().True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *RegistrationServiceSuite) TestGetProfile() {
	p, err := s.svc.CreateProfile(s.ctx, "chi@school.example", "+2348023456789", "Chi Nwosu", "", models.RoleParticipant)
	s.Require().NoError(err)

	s.Run("participants read their own profile", func() {
		ctx := requestcontext.WithPrincipal(s.ctx, requestcontext.AuthPrincipal{
			ID: p.ID, Role: requestcontext.RoleParticipant,
		})
		got, err := s.svc.GetProfile(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Email, got.Email)
	})

	s.Run("participants cannot read others", func() {
		ctx := requestcontext.WithPrincipal(s.ctx, requestcontext.AuthPrincipal{
			ID: uuid.New(), Role: requestcontext.RoleParticipant,
		})
		_, err := s.svc.GetProfile(ctx, p.ID)
		s.Require().True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("validators read any profile", func() {
		ctx := requestcontext.WithPrincipal(s.ctx, requestcontext.AuthPrincipal{
			ID: uuid.New(), Role: requestcontext.RoleValidator,
		})
		_, err := s.svc.GetProfile(ctx, p.ID)
		s.Require().NoError(err)
	})

	s.Run("unknown profile", func() {
		_, err := s.svc.GetProfile(s.asAdmin(), uuid.New())
		s.Require().ErrorIs(err, ErrProfileNotFound)
	})
}

func (s *RegistrationServiceSuite) TestDeclineAccreditation() {
	p, err := s.svc.CreateProfile(s.ctx, "eze@school.example", "+2348034567890", "Eze Ike", "", models.RoleParticipant)
	s.Require().NoError(err)

	s.Run("admin declines a pending accreditation", func() {
		s.Require().NoError(s.svc.DeclineAccreditation(s.asAdmin(), p.ID))

		stored, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.AccreditationDeclined, stored.AccreditationStatus)
	})

	s.Run("a second decline conflicts", func() {
		err := s.svc.DeclineAccreditation(s.asAdmin(), p.ID)
		s.Require().True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("non-admins are forbidden", func() {
		ctx := requestcontext.WithPrincipal(s.ctx, requestcontext.AuthPrincipal{
			ID: uuid.New(), Role: requestcontext.RoleValidator,
		})
		err := s.svc.DeclineAccreditation(ctx, p.ID)
		s.Require().True(dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func (s *RegistrationServiceSuite) TestRegistrationAnalytics() {
	for _, phone := range []string{"+2348045678901", "+2348056789012", "+2348067890123"} {
		_, err := s.svc.CreateProfile(s.ctx, phone+"@school.example", phone, "Test User", "", models.RoleParticipant)
		s.Require().NoError(err)
	}

	analytics, err := s.svc.RegistrationAnalytics(s.asAdmin())
	s.Require().NoError(err)
	s.Equal(3, analytics.Total)
	s.Equal(3, analytics.ByStatus[models.PaymentNotRegistered])
}
