package mealvalidation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/scan/models"
)

type key struct {
	participantID uuid.UUID
	mealType      models.ScanType
	date          string
}

// MemoryStore mirrors the postgres idempotency semantics with a map keyed on
// (participant, meal, date) guarded by one mutex, so the check and the insert
// are atomic just like ON CONFLICT DO NOTHING.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[key]*models.MealValidation
}

func NewMemory() *MemoryStore {
	return &MemoryStore{rows: make(map[key]*models.MealValidation)}
}

func (s *MemoryStore) InsertIfAbsent(_ context.Context, mv *models.MealValidation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{mv.ParticipantID, mv.MealType, mv.Date}
	if _, exists := s.rows[k]; exists {
		return false, nil
	}
	cp := *mv
	s.rows[k] = &cp
	return true, nil
}

func (s *MemoryStore) Find(_ context.Context, participantID uuid.UUID, mealType models.ScanType, date string) (*models.MealValidation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mv, ok := s.rows[key{participantID, mealType, date}]
	if !ok {
		return nil, nil
	}
	cp := *mv
	return &cp, nil
}

func (s *MemoryStore) ListByParticipant(_ context.Context, participantID uuid.UUID) ([]*models.MealValidation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.MealValidation
	for _, mv := range s.rows {
		if mv.ParticipantID == participantID {
			cp := *mv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ExpireBefore(_ context.Context, cutoffDate string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, mv := range s.rows {
		if mv.Date < cutoffDate && mv.Status == models.MealValidated {
			mv.Status = models.MealExpired
			n++
		}
	}
	return n, nil
}
