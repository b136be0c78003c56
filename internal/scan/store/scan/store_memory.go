package scan

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/scan/models"
)

// MemoryStore keeps the scan trail in memory for unit tests.
type MemoryStore struct {
	mu    sync.Mutex
	scans []*models.Scan
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, scan *models.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *scan
	s.scans = append(s.scans, &cp)
	return nil
}

func (s *MemoryStore) ListByValidator(_ context.Context, validatorID uuid.UUID, limit int) ([]*models.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(limit, func(sc *models.Scan) bool { return sc.ScannedBy == validatorID }), nil
}

func (s *MemoryStore) ListAll(_ context.Context, limit int) ([]*models.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(limit, func(*models.Scan) bool { return true }), nil
}

func (s *MemoryStore) ListBySubject(_ context.Context, userID uuid.UUID, limit int) ([]*models.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(limit, func(sc *models.Scan) bool { return sc.UserID == userID }), nil
}

// filter walks newest-first to mirror the postgres ordering.
func (s *MemoryStore) filter(limit int, keep func(*models.Scan) bool) []*models.Scan {
	var out []*models.Scan
	for i := len(s.scans) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(s.scans[i]) {
			cp := *s.scans[i]
			out = append(out, &cp)
		}
	}
	return out
}
