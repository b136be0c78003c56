package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	regmodels "github.com/Onahi7/napps-sub001/internal/registration/models"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	"github.com/Onahi7/napps-sub001/internal/scan/models"
	assignmentstore "github.com/Onahi7/napps-sub001/internal/scan/store/assignment"
	mealstore "github.com/Onahi7/napps-sub001/internal/scan/store/mealvalidation"
	scanstore "github.com/Onahi7/napps-sub001/internal/scan/store/scan"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

type ScanServiceSuite struct {
	suite.Suite
	profiles    *profilestore.MemoryStore
	scans       *scanstore.MemoryStore
	meals       *mealstore.MemoryStore
	assignments *assignmentstore.MemoryStore
	svc         *Service

	validator *regmodels.Profile
	admin     *regmodels.Profile
}

func (s *ScanServiceSuite) SetupTest() {
	s.profiles = profilestore.NewMemory()
	s.scans = scanstore.NewMemory()
	s.meals = mealstore.NewMemory()
	s.assignments = assignmentstore.NewMemory()
	s.svc = New(s.profiles, s.scans, s.meals, s.assignments, tx.NewMemoryRunner())

	s.validator = s.newProfile(regmodels.RoleValidator)
	s.admin = s.newProfile(regmodels.RoleAdmin)
}

func TestScanServiceSuite(t *testing.T) {
	suite.Run(t, new(ScanServiceSuite))
}

var phoneSeq atomic.Int64

func (s *ScanServiceSuite) newProfile(role regmodels.Role) *regmodels.Profile {
	phone := fmt.Sprintf("+23470%08d", phoneSeq.Add(1))
	p, err := regmodels.NewProfile(uuid.New(),
		uuid.NewString()+"@school.example", phone, "Chidi Eze", "Hope Academy",
		role, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.profiles.Create(context.Background(), p))
	return p
}

func (s *ScanServiceSuite) asValidator() context.Context {
	return requestcontext.WithPrincipal(context.Background(), requestcontext.AuthPrincipal{
		ID: s.validator.ID, Role: requestcontext.RoleValidator,
	})
}

func (s *ScanServiceSuite) asAdmin() context.Context {
	return requestcontext.WithPrincipal(context.Background(), requestcontext.AuthPrincipal{
		ID: s.admin.ID, Role: requestcontext.RoleAdmin,
	})
}

func (s *ScanServiceSuite) TestAccess() {
	participant := s.newProfile(regmodels.RoleParticipant)

	s.Run("missing principal is unauthorized", func() {
		_, err := s.svc.RecordScan(context.Background(), participant.ID.String(), models.ScanCheckIn, "", "")
		s.Require().True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("participants may not scan", func() {
		ctx := requestcontext.WithPrincipal(context.Background(), requestcontext.AuthPrincipal{
			ID: participant.ID, Role: requestcontext.RoleParticipant,
		})
		_, err := s.svc.RecordScan(ctx, participant.ID.String(), models.ScanCheckIn, "", "")
		s.Require().True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("unknown scan type is rejected", func() {
		_, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanType("lunch"), "", "")
		s.Require().True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("unknown subject", func() {
		_, err := s.svc.RecordScan(s.asValidator(), uuid.NewString(), models.ScanCheckIn, "", "")
		s.Require().ErrorIs(err, ErrParticipantNotFound)
	})
}

func (s *ScanServiceSuite) TestSubjectResolution() {
	participant := s.newProfile(regmodels.RoleParticipant)

	s.Run("by id", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanCheckIn, "", "")
		s.Require().NoError(err)
		s.True(result.Success)
		s.Equal(participant.ID, result.Participant.ID)
	})

	s.Run("by phone", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.Phone, models.ScanSession, "Hall A", "")
		s.Require().NoError(err)
		s.True(result.Success)
		s.Equal(participant.FullName, result.Participant.FullName)
	})
}

func (s *ScanServiceSuite) TestAccreditationScan() {
	participant := s.newProfile(regmodels.RoleParticipant)

	s.Run("first scan completes accreditation", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanAccreditation, "Gate 1", "")
		s.Require().NoError(err)
		s.True(result.Success)

		stored, err := s.profiles.FindByID(context.Background(), participant.ID)
		s.Require().NoError(err)
		s.Equal(regmodels.AccreditationCompleted, stored.AccreditationStatus)
		s.NotNil(stored.AccreditationDate)
	})

	s.Run("re-scan reports already accredited but still audits", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanAccreditation, "Gate 1", "")
		s.Require().NoError(err)
		s.False(result.Success)
		s.Equal("already accredited", result.Message)
		s.NotEqual(uuid.Nil, result.ScanID)

		history, err := s.svc.ScanHistory(s.asValidator())
		s.Require().NoError(err)
		s.Len(history, 2)
	})
}

func (s *ScanServiceSuite) TestMealScan() {
	participant := s.newProfile(regmodels.RoleParticipant)

	s.Run("first scan validates the meal", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanBreakfast, "Dining Hall", "")
		s.Require().NoError(err)
		s.True(result.Success)

		validations, err := s.meals.ListByParticipant(context.Background(), participant.ID)
		s.Require().NoError(err)
		s.Require().Len(validations, 1)
		s.Equal(models.MealValidated, validations[0].Status)
		s.Equal(s.validator.FullName, validations[0].ValidatorName)
	})

	s.Run("same-day duplicate is a soft result with one row", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanBreakfast, "Dining Hall", "")
		s.Require().NoError(err)
		s.False(result.Success)
		s.Equal("already validated", result.Message)

		validations, err := s.meals.ListByParticipant(context.Background(), participant.ID)
		s.Require().NoError(err)
		s.Len(validations, 1)
	})

	s.Run("a different meal type validates independently", func() {
		result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanDinner, "Dining Hall", "")
		s.Require().NoError(err)
		s.True(result.Success)
	})

	s.Run("a new day validates again", func() {
		tomorrow := requestcontext.WithTime(s.asValidator(), time.Now().Add(24*time.Hour))
		result, err := s.svc.RecordScan(tomorrow, participant.ID.String(), models.ScanBreakfast, "Dining Hall", "")
		s.Require().NoError(err)
		s.True(result.Success)
	})
}

func (s *ScanServiceSuite) TestConcurrentMealScans() {
	participant := s.newProfile(regmodels.RoleParticipant)

	const scanners = 12
	var validated, duplicates atomic.Int64
	var wg sync.WaitGroup
	for range scanners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanDinner, "Dining Hall", "")
			if err != nil {
				return
			}
			if result.Success {
				validated.Add(1)
			} else {
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), validated.Load())
	s.Equal(int64(scanners-1), duplicates.Load())

	validations, err := s.meals.ListByParticipant(context.Background(), participant.ID)
	s.Require().NoError(err)
	s.Len(validations, 1)

	// Every attempt still left an audit row.
	history, err := s.svc.ScanHistory(s.asValidator())
	s.Require().NoError(err)
	s.Len(history, scanners)
}

func (s *ScanServiceSuite) TestScanHistory() {
	participant := s.newProfile(regmodels.RoleParticipant)

	_, err := s.svc.RecordScan(s.asValidator(), participant.ID.String(), models.ScanCheckIn, "", "")
	s.Require().NoError(err)
	_, err = s.svc.RecordScan(s.asAdmin(), participant.ID.String(), models.ScanSession, "", "")
	s.Require().NoError(err)

	s.Run("validators see only their own scans", func() {
		history, err := s.svc.ScanHistory(s.asValidator())
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(s.validator.ID, history[0].ScannedBy)
	})

	s.Run("admins see the full trail", func() {
		history, err := s.svc.ScanHistory(s.asAdmin())
		s.Require().NoError(err)
		s.Len(history, 2)
	})
}

func (s *ScanServiceSuite) TestAssignments() {
	today := time.Now().Format("2006-01-02")

	s.Run("admin schedules a shift", func() {
		err := s.svc.CreateAssignment(s.asAdmin(), &models.ValidatorAssignment{
			ValidatorID:  s.validator.ID,
			MealType:     models.ScanBreakfast,
			Location:     "Dining Hall",
			ScheduleDate: today,
			ScheduleTime: "07:00",
		})
		s.Require().NoError(err)
	})

	s.Run("validator reads own schedule", func() {
		assignments, err := s.svc.Assignments(s.asValidator(), s.validator.ID)
		s.Require().NoError(err)
		s.Require().Len(assignments, 1)
		s.Equal(models.AssignmentPending, assignments[0].Status)
	})

	s.Run("validator may not read another validator's schedule", func() {
		other := s.newProfile(regmodels.RoleValidator)
		_, err := s.svc.Assignments(s.asValidator(), other.ID)
		s.Require().True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("validators may not schedule", func() {
		err := s.svc.CreateAssignment(s.asValidator(), &models.ValidatorAssignment{
			ValidatorID: s.validator.ID, MealType: models.ScanDinner, ScheduleDate: today,
		})
		s.Require().True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("admin removes a shift", func() {
		assignments, err := s.svc.Assignments(s.asAdmin(), s.validator.ID)
		s.Require().NoError(err)
		s.Require().Len(assignments, 1)

		s.Require().NoError(s.svc.RemoveAssignment(s.asAdmin(), assignments[0].ID))

		remaining, err := s.svc.Assignments(s.asAdmin(), s.validator.ID)
		s.Require().NoError(err)
		s.Empty(remaining)
	})

	s.Run("removing an unknown shift is not found", func() {
		err := s.svc.RemoveAssignment(s.asAdmin(), uuid.New())
		s.Require().True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *ScanServiceSuite) TestExpireStale() {
	participant := s.newProfile(regmodels.RoleParticipant)

	yesterday := requestcontext.WithTime(s.asValidator(), time.Now().Add(-24*time.Hour))
	_, err := s.svc.RecordScan(yesterday, participant.ID.String(), models.ScanBreakfast, "", "")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ExpireStale(context.Background()))

	validations, err := s.meals.ListByParticipant(context.Background(), participant.ID)
	s.Require().NoError(err)
	s.Require().Len(validations, 1)
	s.Equal(models.MealExpired, validations[0].Status)
}
