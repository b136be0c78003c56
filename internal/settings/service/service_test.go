package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Onahi7/napps-sub001/internal/settings/models"
	"github.com/Onahi7/napps-sub001/internal/settings/store"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// fakeCache is an in-process ValueCache; TTLs are recorded but not enforced.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) InvalidatePattern(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	return nil
}

type SettingsServiceSuite struct {
	suite.Suite
	store *store.MemoryStore
	cache *fakeCache
	svc   *Service
	ctx   context.Context
}

func (s *SettingsServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.cache = newFakeCache()
	s.svc = New(s.store, WithCache(s.cache))
	s.ctx = requestcontext.WithPrincipal(context.Background(), requestcontext.AuthPrincipal{
		ID: uuid.New(), Role: requestcontext.RoleAdmin,
	})
	s.Require().NoError(s.svc.Seed(s.ctx))
}

func TestSettingsServiceSuite(t *testing.T) {
	suite.Run(t, new(SettingsServiceSuite))
}

func (s *SettingsServiceSuite) TestReadThrough() {
	s.Run("repeated reads hit the store exactly once", func() {
		before := s.store.GetCalls()

		for range 5 {
			amount, err := s.svc.RegistrationAmount(s.ctx)
			s.Require().NoError(err)
			s.Equal(int64(2000000), amount)
		}

		s.Equal(before+1, s.store.GetCalls())
	})

	s.Run("missing key", func() {
		_, err := s.svc.Get(s.ctx, "no.such.key")
		s.Require().ErrorIs(err, ErrSettingNotFound)
	})

	s.Run("conference keys get the long TTL", func() {
		_, err := s.svc.GetString(s.ctx, models.KeyConferenceTimezone)
		s.Require().NoError(err)
		s.Equal(time.Hour, s.cache.ttls[models.KeyConferenceTimezone])

		_, err = s.svc.RegistrationAmount(s.ctx)
		s.Require().NoError(err)
		s.Equal(5*time.Minute, s.cache.ttls[models.KeyRegistrationAmount])
	})

	s.Run("reads stay correct with no cache at all", func() {
		bare := New(s.store)
		amount, err := bare.RegistrationAmount(s.ctx)
		s.Require().NoError(err)
		s.Equal(int64(2000000), amount)
	})
}

func (s *SettingsServiceSuite) TestSet() {
	s.Run("writes through and refreshes the cache", func() {
		_, err := s.svc.RegistrationAmount(s.ctx)
		s.Require().NoError(err)

		err = s.svc.Set(s.ctx, models.KeyRegistrationAmount, json.RawMessage(`2500000`), "fee bump")
		s.Require().NoError(err)

		amount, err := s.svc.RegistrationAmount(s.ctx)
		s.Require().NoError(err)
		s.Equal(int64(2500000), amount)

		// The fresh value came from the refreshed cache, not the store.
		stored, err := s.store.Get(context.Background(), models.KeyRegistrationAmount)
		s.Require().NoError(err)
		s.JSONEq(`2500000`, string(stored.Value))
	})

	s.Run("non-admins may not write", func() {
		ctx := requestcontext.WithPrincipal(context.Background(), requestcontext.AuthPrincipal{
			ID: uuid.New(), Role: requestcontext.RoleValidator,
		})
		err := s.svc.Set(ctx, models.KeyConferenceVenue, json.RawMessage(`"Eagle Square"`), "")
		s.Require().True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("rejects invalid JSON", func() {
		err := s.svc.Set(s.ctx, models.KeyConferenceVenue, json.RawMessage(`{not json`), "")
		s.Require().True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *SettingsServiceSuite) TestInvalidatePrefix() {
	_, err := s.svc.GetString(s.ctx, models.KeyConferenceName)
	s.Require().NoError(err)
	_, err = s.svc.RegistrationAmount(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.InvalidatePrefix(s.ctx, "conference."))

	_, cached, err := s.cache.Get(context.Background(), models.KeyConferenceName)
	s.Require().NoError(err)
	s.False(cached)

	_, cached, err = s.cache.Get(context.Background(), models.KeyRegistrationAmount)
	s.Require().NoError(err)
	s.True(cached)
}

func (s *SettingsServiceSuite) TestSeedKeepsEdits() {
	err := s.svc.Set(s.ctx, models.KeyRegistrationAmount, json.RawMessage(`3000000`), "")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Seed(s.ctx))

	stored, err := s.store.Get(context.Background(), models.KeyRegistrationAmount)
	s.Require().NoError(err)
	s.JSONEq(`3000000`, string(stored.Value))
}
