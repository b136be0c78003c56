package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Onahi7/napps-sub001/internal/notify"
	settingsmetrics "github.com/Onahi7/napps-sub001/internal/settings/metrics"
	"github.com/Onahi7/napps-sub001/internal/settings/models"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// Cache TTLs. Conference metadata changes at most a few times before the
// event, so it gets the long TTL; everything else uses the default.
const (
	defaultTTL    = 5 * time.Minute
	conferenceTTL = time.Hour

	conferencePrefix = "conference."
)

// ErrSettingNotFound means no setting exists under the requested key.
var ErrSettingNotFound = dErrors.New(dErrors.CodeNotFound, "setting not found")

// Store is the persistence surface the service needs.
type Store interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	List(ctx context.Context, prefix string) ([]*models.Setting, error)
	Seed(ctx context.Context, defaults []*models.Setting) error
}

// ValueCache is the cache surface in front of the store. A nil ValueCache
// degrades to store reads on every Get.
type ValueCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	InvalidatePattern(ctx context.Context, prefix string) error
}

// Service serves slow-changing configuration through a read-through cache.
type Service struct {
	store    Store
	cache    ValueCache
	group    singleflight.Group
	notifier notify.Publisher
	logger   *slog.Logger
	metrics  *settingsmetrics.Metrics
}

type Option func(*Service)

func WithCache(c ValueCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithNotifier(n notify.Publisher) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *settingsmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notify.NopPublisher{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the raw JSON value for key. Cache hit returns immediately; a
// miss loads the store once per key via singleflight and populates the cache.
func (s *Service) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "settings cache read failed", "key", key, "error", err)
		} else if ok {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			return json.RawMessage(cached), nil
		}
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	val, err, _ := s.group.Do(key, func() (any, error) {
		setting, err := s.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, ErrSettingNotFound
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load setting")
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, setting.Value, ttlFor(key)); err != nil {
				s.logger.WarnContext(ctx, "settings cache write failed", "key", key, "error", err)
			}
		}
		return setting.Value, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(json.RawMessage), nil
}

// GetString unmarshals the value at key as a JSON string.
func (s *Service) GetString(ctx context.Context, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "setting is not a string").WithField(key)
	}
	return out, nil
}

// GetInt64 unmarshals the value at key as a JSON number.
func (s *Service) GetInt64(ctx context.Context, key string) (int64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var out int64
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "setting is not an integer").WithField(key)
	}
	return out, nil
}

// RegistrationAmount returns the fee in kobo.
func (s *Service) RegistrationAmount(ctx context.Context) (int64, error) {
	return s.GetInt64(ctx, models.KeyRegistrationAmount)
}

// Location resolves the conference timezone, falling back to Africa/Lagos
// when the setting is absent or unparseable.
func (s *Service) Location(ctx context.Context) *time.Location {
	name, err := s.GetString(ctx, models.KeyConferenceTimezone)
	if err == nil {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		s.logger.WarnContext(ctx, "invalid conference timezone setting", "value", name)
	}
	return time.FixedZone("WAT", 3600)
}

// Set writes through to the store then refreshes the cache entry (admin
// only). The store write is the commit point; a failed cache refresh only
// delays visibility until the TTL expires.
func (s *Service) Set(ctx context.Context, key string, value json.RawMessage, description string) error {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !principal.Can(requestcontext.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "only admins may change settings")
	}
	if key == "" {
		return dErrors.New(dErrors.CodeValidation, "setting key is required").WithField("key")
	}
	if !json.Valid(value) {
		return dErrors.New(dErrors.CodeValidation, "setting value must be valid JSON").WithField("value")
	}

	now := requestcontext.Now(ctx)
	setting := &models.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   now,
		UpdatedBy:   &principal.ID,
	}
	if err := s.store.Upsert(ctx, setting); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save setting")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, value, ttlFor(key)); err != nil {
			s.logger.WarnContext(ctx, "settings cache refresh failed", "key", key, "error", err)
		}
	}
	s.notifier.StateChanged(ctx, notify.Event{
		Kind:       notify.KindSettingsChanged,
		Key:        key,
		OccurredAt: now,
	})
	return nil
}

// List returns persisted settings under prefix, bypassing the cache. Used by
// admin screens where staleness is unacceptable.
func (s *Service) List(ctx context.Context, prefix string) ([]*models.Setting, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !principal.Can(requestcontext.RoleAdmin) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins may list settings")
	}
	out, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list settings")
	}
	return out, nil
}

// InvalidatePrefix clears every cached entry under prefix after a bulk
// change (admin only).
func (s *Service) InvalidatePrefix(ctx context.Context, prefix string) error {
	principal := requestcontext.Principal(ctx)
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !principal.Can(requestcontext.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "only admins may invalidate settings")
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidatePattern(ctx, prefix); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate settings cache")
	}
	return nil
}

// Seed installs defaults at boot without overwriting existing values.
func (s *Service) Seed(ctx context.Context) error {
	now := time.Now().UTC()
	defaults := []*models.Setting{
		{Key: models.KeyRegistrationAmount, Value: json.RawMessage(`2000000`), Description: "Registration fee in kobo", UpdatedAt: now},
		{Key: models.KeyConferenceName, Value: json.RawMessage(`"NAPPS National Summit"`), Description: "Conference display name", UpdatedAt: now},
		{Key: models.KeyConferenceVenue, Value: json.RawMessage(`"TBD"`), Description: "Conference venue", UpdatedAt: now},
		{Key: models.KeyConferenceStartDate, Value: json.RawMessage(`""`), Description: "Conference start date (YYYY-MM-DD)", UpdatedAt: now},
		{Key: models.KeyConferenceEndDate, Value: json.RawMessage(`""`), Description: "Conference end date (YYYY-MM-DD)", UpdatedAt: now},
		{Key: models.KeyConferenceTimezone, Value: json.RawMessage(`"Africa/Lagos"`), Description: "IANA timezone for meal-day boundaries", UpdatedAt: now},
	}
	if err := s.store.Seed(ctx, defaults); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed settings")
	}
	return nil
}

func ttlFor(key string) time.Duration {
	if strings.HasPrefix(key, conferencePrefix) {
		return conferenceTTL
	}
	return defaultTTL
}
