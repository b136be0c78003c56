package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	"github.com/Onahi7/napps-sub001/internal/registration/models"
	"github.com/Onahi7/napps-sub001/internal/registration/service"
	"github.com/Onahi7/napps-sub001/internal/transport/http/shared"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
)

// Service defines the registration operations the handler exposes.
type Service interface {
	CreateProfile(ctx context.Context, email, phone, fullName, school string, role models.Role) (*models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	DeclineAccreditation(ctx context.Context, id uuid.UUID) error
	RegistrationAnalytics(ctx context.Context) (*service.Analytics, error)
}

// Handler serves profile registration and the admin registration views.
type Handler struct {
	registration Service
	logger       *slog.Logger
	validator    middleware.TokenValidator
}

func New(registration Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{registration: registration, logger: logger, validator: validator}
}

// Register mounts the registration routes. Profile creation is public; reads
// and admin operations require a token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registration", h.handleCreate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/registration/{id}", h.handleGet)
		r.Get("/admin/analytics", h.handleAnalytics)
		r.Post("/admin/accreditation/{id}/decline", h.handleDeclineAccreditation)
	})
}

type createRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	School   string `json:"school"`
	Role     string `json:"role"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleParticipant
	}

	profile, err := h.registration.CreateProfile(ctx, req.Email, req.Phone, req.FullName, req.School, role)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeValidation) && !dErrors.Is(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "failed to create profile", "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid profile id"))
		return
	}
	profile, err := h.registration.GetProfile(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.registration.RegistrationAnalytics(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, analytics)
}

func (h *Handler) handleDeclineAccreditation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid profile id"))
		return
	}
	if err := h.registration.DeclineAccreditation(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
