package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/booking/models"
	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	"github.com/Onahi7/napps-sub001/internal/transport/http/shared"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
)

// Service defines the booking operations the handler exposes.
type Service interface {
	Reserve(ctx context.Context, hotelName, roomType, checkIn, checkOut string) (*models.Booking, error)
	Confirm(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	ListMine(ctx context.Context) ([]*models.Booking, error)
}

// Handler serves participant hotel bookings.
type Handler struct {
	bookings  Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(bookings Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{bookings: bookings, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Post("/bookings", h.handleReserve)
		r.Get("/bookings", h.handleList)
		r.Post("/bookings/{id}/confirm", h.handleConfirm)
		r.Post("/bookings/{id}/cancel", h.handleCancel)
	})
}

type reserveRequest struct {
	HotelName string `json:"hotel_name"`
	RoomType  string `json:"room_type"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	booking, err := h.bookings.Reserve(r.Context(), req.HotelName, req.RoomType, req.CheckIn, req.CheckOut)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, booking)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListMine(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bookings)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Confirm)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, uuid.UUID) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid booking id"))
		return
	}
	if err := apply(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
