//go:build integration

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stretchr/testify/require"

	"github.com/Onahi7/napps-sub001/internal/registration/models"
	"github.com/Onahi7/napps-sub001/internal/payment/service"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
	"github.com/Onahi7/napps-sub001/pkg/testutil/containers"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
)

// Verifying the same reference from many goroutines against a real
// database must complete the payment exactly once. The row lock taken
// inside the transaction is what serializes the losers.
func TestConcurrentVerifyAgainstPostgres(t *testing.T) {
	pc := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pc.TruncateTables(ctx))

	profiles := profilestore.NewPostgres(pc.DB)
	payments := service.New(profiles, tx.NewPostgresRunner(pc.DB))

	p, err := models.NewProfile(uuid.New(),
		"verify-race@school.example", "+2348090000001", "Race Tester", "Unity College",
		models.RoleParticipant, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, profiles.Create(ctx, p))

	adminCtx := requestcontext.WithPrincipal(ctx, requestcontext.AuthPrincipal{
		ID:   p.ID,
		Role: requestcontext.RoleAdmin,
	})

	reference, err := payments.InitializePayment(adminCtx, p.ID, 2000000)
	require.NoError(t, err)

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = payments.VerifyPayment(adminCtx, reference)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case dErrors.Is(err, dErrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected verify error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, workers-1, conflicts)

	stored, err := profiles.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentCompletedAt)
}
