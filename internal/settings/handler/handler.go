package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	"github.com/Onahi7/napps-sub001/internal/settings/models"
	"github.com/Onahi7/napps-sub001/internal/transport/http/shared"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// Service defines the settings operations the handler exposes.
type Service interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage, description string) error
	List(ctx context.Context, prefix string) ([]*models.Setting, error)
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Handler serves cached settings reads and admin settings management.
type Handler struct {
	settings  Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(settings Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{settings: settings, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Get("/settings/{key}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(requestcontext.RoleAdmin, h.logger))
			r.Get("/admin/settings", h.handleList)
			r.Put("/admin/settings/{key}", h.handleSet)
			r.Post("/admin/settings/invalidate", h.handleInvalidate)
		})
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	value, err := h.settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]json.RawMessage{"value": value})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}

type setRequest struct {
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.settings.Set(r.Context(), chi.URLParam(r, "key"), req.Value, req.Description); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invalidateRequest struct {
	Prefix string `json:"prefix"`
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.settings.InvalidatePrefix(r.Context(), req.Prefix); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
