package assignment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/scan/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
)

// MemoryStore keeps assignments in memory for unit tests.
type MemoryStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*models.ValidatorAssignment
}

func NewMemory() *MemoryStore {
	return &MemoryStore{assignments: make(map[uuid.UUID]*models.ValidatorAssignment)}
}

func (s *MemoryStore) Create(_ context.Context, a *models.ValidatorAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.assignments[a.ID] = &cp
	return nil
}

func (s *MemoryStore) ListUpcoming(_ context.Context, validatorID uuid.UUID, fromDate string) ([]*models.ValidatorAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ValidatorAssignment
	for _, a := range s.assignments {
		if a.ValidatorID == validatorID && a.DeletedAt == nil && a.ScheduleDate >= fromDate {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduleDate != out[j].ScheduleDate {
			return out[i].ScheduleDate < out[j].ScheduleDate
		}
		return out[i].ScheduleTime < out[j].ScheduleTime
	})
	return out, nil
}

func (s *MemoryStore) SoftDelete(_ context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok || a.DeletedAt != nil {
		return fmt.Errorf("soft delete assignment: %w", sentinel.ErrNotFound)
	}
	a.DeletedAt = &now
	return nil
}

func (s *MemoryStore) CompletePast(_ context.Context, beforeDate string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, a := range s.assignments {
		if a.DeletedAt == nil && a.ScheduleDate < beforeDate && a.Status != models.AssignmentCompleted {
			a.Status = models.AssignmentCompleted
			n++
		}
	}
	return n, nil
}
