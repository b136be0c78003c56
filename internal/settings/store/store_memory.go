package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Onahi7/napps-sub001/internal/settings/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
)

// MemoryStore is the in-memory settings store used by unit tests. It counts
// reads so cache behavior can be asserted without a real backend.
type MemoryStore struct {
	mu       sync.Mutex
	settings map[string]*models.Setting
	getCalls int
}

func NewMemory() *MemoryStore {
	return &MemoryStore{settings: make(map[string]*models.Setting)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	setting, ok := s.settings[key]
	if !ok {
		return nil, fmt.Errorf("get setting: %w", sentinel.ErrNotFound)
	}
	c := *setting
	return &c, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, setting *models.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *setting
	s.settings[setting.Key] = &c
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Setting
	for key, setting := range s.settings {
		if strings.HasPrefix(key, prefix) {
			c := *setting
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Seed(ctx context.Context, defaults []*models.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, setting := range defaults {
		if _, ok := s.settings[setting.Key]; ok {
			continue
		}
		c := *setting
		s.settings[setting.Key] = &c
	}
	return nil
}

// GetCalls reports how many times Get hit the store.
func (s *MemoryStore) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}
