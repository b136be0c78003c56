package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/booking/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
)

// MemoryStore is the in-memory booking store used by unit tests.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func NewMemory() *MemoryStore {
	return &MemoryStore{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *MemoryStore) Create(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *b
	s.bookings[b.ID] = &c
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("find booking: %w", sentinel.ErrNotFound)
	}
	c := *b
	return &c, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = now
	return true, nil
}

func (s *MemoryStore) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Booking
	for _, b := range s.bookings {
		if b.ParticipantID == participantID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
