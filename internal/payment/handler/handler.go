package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	"github.com/Onahi7/napps-sub001/internal/registration/models"
	"github.com/Onahi7/napps-sub001/internal/transport/http/shared"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"

	"github.com/google/uuid"
)

// Service defines the payment state machine operations the handler exposes.
type Service interface {
	InitializePayment(ctx context.Context, profileID uuid.UUID, amount int64) (string, error)
	SubmitProof(ctx context.Context, profileID uuid.UUID, proofLocator string) error
	VerifyPayment(ctx context.Context, reference string) (*models.Profile, error)
	VerifyWithGateway(ctx context.Context, reference string) (*models.Profile, error)
	RejectPayment(ctx context.Context, reference string) error
	GetByReference(ctx context.Context, reference string) (*models.Profile, error)
}

// AmountSource resolves the current registration fee.
type AmountSource interface {
	RegistrationAmount(ctx context.Context) (int64, error)
}

// Handler serves the participant payment flow and the admin verification
// endpoints.
type Handler struct {
	payments  Service
	amounts   AmountSource
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(payments Service, amounts AmountSource, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{payments: payments, amounts: amounts, logger: logger, validator: validator}
}

// Register mounts the payment routes. All of them require a token; the admin
// group additionally requires the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Post("/payment/initialize", h.handleInitialize)
		r.Post("/payment/proof", h.handleSubmitProof)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(requestcontext.RoleAdmin, h.logger))
			r.Get("/admin/payment/{reference}", h.handleGetByReference)
			r.Post("/admin/payment/{reference}/verify", h.handleVerify)
			r.Post("/admin/payment/{reference}/reject", h.handleReject)
		})
	})
}

// handleInitialize starts the caller's payment. The fee comes from settings
// so admins can adjust it without a deploy.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := requestcontext.Principal(ctx)

	amount, err := h.amounts.RegistrationAmount(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve registration amount", "error", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "registration fee unavailable"))
		return
	}

	reference, err := h.payments.InitializePayment(ctx, principal.ID, amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"reference": reference,
		"amount":    amount,
	})
}

type submitProofRequest struct {
	ProofLocator string `json:"proof_locator"`
}

func (h *Handler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := requestcontext.Principal(ctx)

	var req submitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.payments.SubmitProof(ctx, principal.ID, req.ProofLocator); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := chi.URLParam(r, "reference")

	// ?gateway=true double-checks the reference with the payment gateway
	// before completing; the plain path trusts the admin's manual review.
	var (
		profile *models.Profile
		err     error
	)
	if r.URL.Query().Get("gateway") == "true" {
		profile, err = h.payments.VerifyWithGateway(ctx, reference)
	} else {
		profile, err = h.payments.VerifyPayment(ctx, reference)
	}
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) || dErrors.Is(err, dErrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "payment verification failed", "reference", reference, "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.RejectPayment(r.Context(), chi.URLParam(r, "reference")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetByReference(w http.ResponseWriter, r *http.Request) {
	profile, err := h.payments.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}
