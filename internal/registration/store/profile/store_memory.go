package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/registration/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
)

// MemoryStore keeps profiles in process memory for unit tests and local dev.
// The mutex stands in for the row locks the postgres store gets from
// FOR UPDATE: every conditional write holds it across check and mutation.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
	byPhone  map[string]uuid.UUID
	byEmail  map[string]uuid.UUID
	byRef    map[string]uuid.UUID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uuid.UUID]*models.Profile),
		byPhone:  make(map[string]uuid.UUID),
		byEmail:  make(map[string]uuid.UUID),
		byRef:    make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[p.Email]; exists {
		return fmt.Errorf("create profile: %w", &sentinel.FieldConflict{Field: "email"})
	}
	if _, exists := s.byPhone[p.Phone]; exists {
		return fmt.Errorf("create profile: %w", &sentinel.FieldConflict{Field: "phone"})
	}
	if p.PaymentReference != "" {
		if _, exists := s.byRef[p.PaymentReference]; exists {
			return fmt.Errorf("create profile: %w", &sentinel.FieldConflict{Field: "payment_reference"})
		}
	}

	cp := *p
	s.profiles[p.ID] = &cp
	s.byEmail[p.Email] = p.ID
	s.byPhone[p.Phone] = p.ID
	if p.PaymentReference != "" {
		s.byRef[p.PaymentReference] = p.ID
	}
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id, "find profile by id")
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, fmt.Errorf("find profile by phone: %w", sentinel.ErrNotFound)
	}
	return s.get(id, "find profile by phone")
}

func (s *MemoryStore) FindByReference(_ context.Context, reference string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRef[reference]
	if !ok {
		return nil, fmt.Errorf("find profile by reference: %w", sentinel.ErrNotFound)
	}
	return s.get(id, "find profile by reference")
}

// FindByIDForUpdate has pool-lock semantics in memory: the caller's memory
// StoreTx serializes whole transactions, so a plain read is equivalent.
func (s *MemoryStore) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.FindByID(ctx, id)
}

func (s *MemoryStore) FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Profile, error) {
	return s.FindByReference(ctx, reference)
}

func (s *MemoryStore) UpdatePayment(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[p.ID]
	if !ok {
		return fmt.Errorf("update payment: %w", sentinel.ErrNotFound)
	}
	if p.PaymentReference != "" {
		if owner, exists := s.byRef[p.PaymentReference]; exists && owner != p.ID {
			return fmt.Errorf("update payment: %w", &sentinel.FieldConflict{Field: "payment_reference"})
		}
	}

	current.PaymentStatus = p.PaymentStatus
	current.PaymentAmount = p.PaymentAmount
	current.PaymentProof = p.PaymentProof
	current.PaymentCompletedAt = p.PaymentCompletedAt
	current.UpdatedAt = p.UpdatedAt
	if p.PaymentReference != "" {
		current.PaymentReference = p.PaymentReference
		s.byRef[p.PaymentReference] = p.ID
	}
	return nil
}

func (s *MemoryStore) CompleteAccreditation(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return false, fmt.Errorf("complete accreditation: %w", sentinel.ErrNotFound)
	}
	if p.AccreditationStatus != models.AccreditationPending {
		return false, nil
	}
	p.ApplyAccreditation(now)
	return true, nil
}

func (s *MemoryStore) DeclineAccreditation(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return false, fmt.Errorf("decline accreditation: %w", sentinel.ErrNotFound)
	}
	if p.AccreditationStatus != models.AccreditationPending {
		return false, nil
	}
	p.AccreditationStatus = models.AccreditationDeclined
	p.UpdatedAt = now
	return true, nil
}

func (s *MemoryStore) PaymentStatusCounts(_ context.Context) (map[models.PaymentStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.PaymentStatus]int)
	for _, p := range s.profiles {
		counts[p.PaymentStatus]++
	}
	return counts, nil
}

func (s *MemoryStore) get(id uuid.UUID, op string) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}
