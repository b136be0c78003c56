package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := New("test-signing-key", "napps-summit")
	profileID := uuid.New()

	token, err := svc.GenerateAccessToken(profileID, requestcontext.RoleValidator, time.Hour)
	require.NoError(t, err)

	principal, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, profileID, principal.ID)
	assert.Equal(t, requestcontext.RoleValidator, principal.Role)
}

func TestValidateTokenFailures(t *testing.T) {
	svc := New("test-signing-key", "napps-summit")

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(uuid.New(), requestcontext.RoleParticipant, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := New("different-key", "napps-summit")
		token, err := other.GenerateAccessToken(uuid.New(), requestcontext.RoleAdmin, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}
