package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/booking/models"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// ErrBookingNotFound means no booking exists under the requested id.
var ErrBookingNotFound = dErrors.New(dErrors.CodeNotFound, "booking not found")

const dateLayout = "2006-01-02"

// Store is the persistence surface the booking service needs.
type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus, now time.Time) (bool, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.Booking, error)
}

// Service manages hotel bookings. Transitions are applied as conditional
// updates against the expected current status, so concurrent callers cannot
// double-apply an edge.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Reserve creates a booking in the reserved state for the caller.
func (s *Service) Reserve(ctx context.Context, hotelName, roomType, checkIn, checkOut string) (*models.Booking, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	hotelName = strings.TrimSpace(hotelName)
	if hotelName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "hotel name is required").WithField("hotel_name")
	}
	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "check-in must be YYYY-MM-DD").WithField("check_in")
	}
	out, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "check-out must be YYYY-MM-DD").WithField("check_out")
	}
	if !out.After(in) {
		return nil, dErrors.New(dErrors.CodeValidation, "check-out must be after check-in").WithField("check_out")
	}

	now := requestcontext.Now(ctx)
	booking := &models.Booking{
		ID:            uuid.New(),
		ParticipantID: principal.ID,
		HotelName:     hotelName,
		RoomType:      strings.TrimSpace(roomType),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Status:        models.BookingReserved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, booking); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create booking")
	}
	return booking, nil
}

// Confirm moves a reserved booking to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.BookingConfirmed)
}

// Cancel moves a reserved or confirmed booking to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.BookingCancelled)
}

// ListMine returns the caller's bookings, newest first.
func (s *Service) ListMine(ctx context.Context) ([]*models.Booking, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	bookings, err := s.store.ListByParticipant(ctx, principal.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bookings")
	}
	return bookings, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, target models.BookingStatus) error {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	booking, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrBookingNotFound
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load booking")
	}
	if booking.ParticipantID != principal.ID && !principal.Can(requestcontext.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "booking belongs to another participant")
	}
	if !booking.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeConflict, "booking is %s and cannot become %s", booking.Status, target)
	}

	applied, err := s.store.UpdateStatus(ctx, id, booking.Status, target, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update booking")
	}
	if !applied {
		// The row changed between read and write; surface it as a conflict.
		return dErrors.Newf(dErrors.CodeConflict, "booking state changed, retry")
	}
	return nil
}
