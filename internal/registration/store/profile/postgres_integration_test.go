//go:build integration

package profile_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Onahi7/napps-sub001/internal/registration/models"
	"github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *profile.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = profile.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx))
}

var phoneSeq atomic.Int64

func newTestProfile(s *PostgresStoreSuite) *models.Profile {
	phone := fmt.Sprintf("+23481%08d", phoneSeq.Add(1))
	p, err := models.NewProfile(uuid.New(),
		uuid.NewString()+"@school.example", phone, "Ngozi Ibe", "Great Minds Academy",
		models.RoleParticipant, time.Now().UTC())
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestUniqueConstraintMapping() {
	first := newTestProfile(s)
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("email", func() {
		dup := newTestProfile(s)
		dup.Email = first.Email
		err := s.store.Create(s.ctx, dup)
		s.Require().Error(err)

		var fc *sentinel.FieldConflict
		s.Require().ErrorAs(err, &fc)
		s.Equal("email", fc.Field)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("phone", func() {
		dup := newTestProfile(s)
		dup.Phone = first.Phone
		err := s.store.Create(s.ctx, dup)
		s.Require().Error(err)

		var fc *sentinel.FieldConflict
		s.Require().ErrorAs(err, &fc)
		s.Equal("phone", fc.Field)
	})

	s.Run("payment_reference", func() {
		first.ApplyInitialization("NAPPS-1-AAAAAA", 2000000, time.Now().UTC())
		s.Require().NoError(s.store.UpdatePayment(s.ctx, first))

		other := newTestProfile(s)
		s.Require().NoError(s.store.Create(s.ctx, other))
		other.ApplyInitialization("NAPPS-1-AAAAAA", 2000000, time.Now().UTC())

		err := s.store.UpdatePayment(s.ctx, other)
		s.Require().Error(err)

		var fc *sentinel.FieldConflict
		s.Require().ErrorAs(err, &fc)
		s.Equal("payment_reference", fc.Field)
	})
}

func (s *PostgresStoreSuite) TestFindByReference() {
	p := newTestProfile(s)
	s.Require().NoError(s.store.Create(s.ctx, p))
	p.ApplyInitialization("NAPPS-2-BBBBBB", 2000000, time.Now().UTC())
	s.Require().NoError(s.store.UpdatePayment(s.ctx, p))

	found, err := s.store.FindByReference(s.ctx, "NAPPS-2-BBBBBB")
	s.Require().NoError(err)
	s.Equal(p.ID, found.ID)

	_, err = s.store.FindByReference(s.ctx, "NAPPS-0-MISSING")
	s.Require().True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestCompleteAccreditationIsOneWay() {
	p := newTestProfile(s)
	s.Require().NoError(s.store.Create(s.ctx, p))

	applied, err := s.store.CompleteAccreditation(s.ctx, p.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.store.CompleteAccreditation(s.ctx, p.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.False(applied)
}
