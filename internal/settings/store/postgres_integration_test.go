//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	regmodels "github.com/Onahi7/napps-sub001/internal/registration/models"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	"github.com/Onahi7/napps-sub001/internal/settings/models"
	"github.com/Onahi7/napps-sub001/internal/settings/store"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/testutil/containers"
)

func seedAdmin(t *testing.T, profiles *profilestore.PostgresStore) uuid.UUID {
	t.Helper()
	p, err := regmodels.NewProfile(uuid.New(),
		uuid.NewString()+"@school.example", "+2348200000001", "Settings Admin", "",
		regmodels.RoleAdmin, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, profiles.Create(context.Background(), p))
	return p.ID
}

func TestSettingsStoreAgainstPostgres(t *testing.T) {
	pc := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pc.TruncateTables(ctx))

	profiles := profilestore.NewPostgres(pc.DB)
	settings := store.NewPostgres(pc.DB)
	adminID := seedAdmin(t, profiles)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("get absent key", func(t *testing.T) {
		_, err := settings.Get(ctx, "no.such.key")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("upsert inserts then updates in place", func(t *testing.T) {
		setting := &models.Setting{
			Key:         models.KeyRegistrationAmount,
			Value:       json.RawMessage(`2000000`),
			Description: "Registration fee in kobo",
			UpdatedAt:   now,
			UpdatedBy:   &adminID,
		}
		require.NoError(t, settings.Upsert(ctx, setting))

		stored, err := settings.Get(ctx, models.KeyRegistrationAmount)
		require.NoError(t, err)
		require.JSONEq(t, `2000000`, string(stored.Value))
		require.Equal(t, "Registration fee in kobo", stored.Description)
		require.NotNil(t, stored.UpdatedBy)
		require.Equal(t, adminID, *stored.UpdatedBy)

		setting.Value = json.RawMessage(`2500000`)
		setting.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, settings.Upsert(ctx, setting))

		stored, err = settings.Get(ctx, models.KeyRegistrationAmount)
		require.NoError(t, err)
		require.JSONEq(t, `2500000`, string(stored.Value))
		require.True(t, stored.UpdatedAt.After(now))
	})

	t.Run("seed never overwrites an edited value", func(t *testing.T) {
		defaults := []*models.Setting{
			{Key: models.KeyRegistrationAmount, Value: json.RawMessage(`2000000`), UpdatedAt: now},
			{Key: models.KeyConferenceTimezone, Value: json.RawMessage(`"Africa/Lagos"`), UpdatedAt: now},
		}
		require.NoError(t, settings.Seed(ctx, defaults))

		edited, err := settings.Get(ctx, models.KeyRegistrationAmount)
		require.NoError(t, err)
		require.JSONEq(t, `2500000`, string(edited.Value))

		seeded, err := settings.Get(ctx, models.KeyConferenceTimezone)
		require.NoError(t, err)
		require.JSONEq(t, `"Africa/Lagos"`, string(seeded.Value))
		require.Nil(t, seeded.UpdatedBy)
	})

	t.Run("list filters by prefix in key order", func(t *testing.T) {
		for _, s := range []*models.Setting{
			{Key: models.KeyConferenceVenue, Value: json.RawMessage(`"Abuja"`), UpdatedAt: now},
			{Key: models.KeyConferenceName, Value: json.RawMessage(`"NAPPS National Summit"`), UpdatedAt: now},
		} {
			require.NoError(t, settings.Upsert(ctx, s))
		}

		conference, err := settings.List(ctx, "conference.")
		require.NoError(t, err)
		keys := make([]string, 0, len(conference))
		for _, s := range conference {
			keys = append(keys, s.Key)
		}
		require.Equal(t, []string{
			models.KeyConferenceName,
			models.KeyConferenceTimezone,
			models.KeyConferenceVenue,
		}, keys)

		all, err := settings.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 4)
	})
}
