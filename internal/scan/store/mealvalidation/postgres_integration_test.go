//go:build integration

package mealvalidation_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	scanmodels "github.com/Onahi7/napps-sub001/internal/scan/models"
	"github.com/Onahi7/napps-sub001/internal/scan/store/mealvalidation"
	"github.com/Onahi7/napps-sub001/internal/registration/models"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	"github.com/Onahi7/napps-sub001/pkg/testutil/containers"
)

var phoneSeq atomic.Int64

func seedParticipant(t *testing.T, profiles *profilestore.PostgresStore) uuid.UUID {
	t.Helper()
	p, err := models.NewProfile(uuid.New(),
		uuid.NewString()+"@school.example",
		fmt.Sprintf("+23481%08d", phoneSeq.Add(1)),
		"Meal Tester", "Unity College",
		models.RoleParticipant, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, profiles.Create(context.Background(), p))
	return p.ID
}

// The unique index on (participant, meal, day) must hold under real
// concurrency: any number of simultaneous inserts leaves one row, and
// exactly one writer sees applied=true.
func TestConcurrentInsertIfAbsent(t *testing.T) {
	pc := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pc.TruncateTables(ctx))

	profiles := profilestore.NewPostgres(pc.DB)
	store := mealvalidation.NewPostgres(pc.DB)
	participantID := seedParticipant(t, profiles)

	const workers = 12
	date := time.Now().UTC().Format("2006-01-02")

	var applied atomic.Int32
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			ok, err := store.InsertIfAbsent(ctx, &scanmodels.MealValidation{
				ID:            uuid.New(),
				ParticipantID: participantID,
				MealType:      scanmodels.ScanBreakfast,
				Date:          date,
				Status:        scanmodels.MealValidated,
				ValidatedAt:   time.Now().UTC(),
				ValidatorName: "Gate A",
			})
			errs[i] = err
			if ok {
				applied.Add(1)
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), applied.Load())

	rows, err := store.ListByParticipant(ctx, participantID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, scanmodels.MealValidated, rows[0].Status)

	// A different meal on the same day is independent.
	ok, err := store.InsertIfAbsent(ctx, &scanmodels.MealValidation{
		ID:            uuid.New(),
		ParticipantID: participantID,
		MealType:      scanmodels.ScanDinner,
		Date:          date,
		Status:        scanmodels.MealValidated,
		ValidatedAt:   time.Now().UTC(),
		ValidatorName: "Gate A",
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestExpireBefore(t *testing.T) {
	pc := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pc.TruncateTables(ctx))

	profiles := profilestore.NewPostgres(pc.DB)
	store := mealvalidation.NewPostgres(pc.DB)
	participantID := seedParticipant(t, profiles)

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	today := time.Now().UTC().Format("2006-01-02")
	for _, date := range []string{yesterday, today} {
		ok, err := store.InsertIfAbsent(ctx, &scanmodels.MealValidation{
			ID:            uuid.New(),
			ParticipantID: participantID,
			MealType:      scanmodels.ScanBreakfast,
			Date:          date,
			Status:        scanmodels.MealValidated,
			ValidatedAt:   time.Now().UTC(),
			ValidatorName: "Gate A",
		})
		require.NoError(t, err)
		require.True(t, ok)
	}

	expired, err := store.ExpireBefore(ctx, today)
	require.NoError(t, err)
	require.Equal(t, int64(1), expired)

	rows, err := store.ListByParticipant(ctx, participantID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byDate := map[string]scanmodels.MealValidationStatus{}
	for _, row := range rows {
		byDate[row.Date] = row.Status
	}
	require.Equal(t, scanmodels.MealExpired, byDate[yesterday])
	require.Equal(t, scanmodels.MealValidated, byDate[today])
}
