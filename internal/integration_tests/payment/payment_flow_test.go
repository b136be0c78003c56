package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Onahi7/napps-sub001/internal/jwttoken"
	paymenthandler "github.com/Onahi7/napps-sub001/internal/payment/handler"
	paymentservice "github.com/Onahi7/napps-sub001/internal/payment/service"
	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	registrationhandler "github.com/Onahi7/napps-sub001/internal/registration/handler"
	registrationservice "github.com/Onahi7/napps-sub001/internal/registration/service"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	settingsservice "github.com/Onahi7/napps-sub001/internal/settings/service"
	settingsstore "github.com/Onahi7/napps-sub001/internal/settings/store"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

type env struct {
	router chi.Router
	tokens *jwttoken.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	profiles := profilestore.NewMemory()
	tokens := jwttoken.New("integration-test-key", "napps-summit")

	settings := settingsservice.New(settingsstore.NewMemory())
	require.NoError(t, settings.Seed(context.Background()))

	payments := paymentservice.New(profiles, tx.NewMemoryRunner(), paymentservice.WithLogger(logger))
	registration := registrationservice.New(profiles, registrationservice.WithLogger(logger))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	registrationhandler.New(registration, logger, tokens).Register(r)
	paymenthandler.New(payments, settings, logger, tokens).Register(r)

	return &env{router: r, tokens: tokens}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestPaymentFlow(t *testing.T) {
	e := newEnv(t)

	// Register a participant.
	rec := e.do(t, http.MethodPost, "/registration", "", map[string]string{
		"email":     "ada@school.example",
		"phone":     "+2348012345678",
		"full_name": "Ada Obi",
		"school":    "Unity College",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var profile struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))

	participantID := mustUUID(t, profile.ID)
	participantToken, err := e.tokens.GenerateAccessToken(participantID, requestcontext.RoleParticipant, time.Hour)
	require.NoError(t, err)
	adminToken, err := e.tokens.GenerateAccessToken(mustUUID(t, profile.ID), requestcontext.RoleAdmin, time.Hour)
	require.NoError(t, err)

	// Initialize payment; the fee comes from seeded settings.
	rec = e.do(t, http.MethodPost, "/payment/initialize", participantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var initialized struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initialized))
	assert.Equal(t, int64(2000000), initialized.Amount)
	require.NotEmpty(t, initialized.Reference)

	// A second initialize returns the same reference.
	rec = e.do(t, http.MethodPost, "/payment/initialize", participantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var again struct {
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, initialized.Reference, again.Reference)

	// Submit proof.
	rec = e.do(t, http.MethodPost, "/payment/proof", participantToken, map[string]string{
		"proof_locator": "whatsapp",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// Admin endpoints reject participant tokens.
	rec = e.do(t, http.MethodPost, "/admin/payment/"+initialized.Reference+"/verify", participantToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin verifies.
	rec = e.do(t, http.MethodPost, "/admin/payment/"+initialized.Reference+"/verify", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verified struct {
		PaymentStatus string `json:"payment_status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.Equal(t, "completed", verified.PaymentStatus)

	// A second verification is rejected, not absorbed.
	rec = e.do(t, http.MethodPost, "/admin/payment/"+initialized.Reference+"/verify", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Requests without a token never reach the services.
	rec = e.do(t, http.MethodPost, "/payment/initialize", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
