package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	"github.com/Onahi7/napps-sub001/internal/scan/models"
	"github.com/Onahi7/napps-sub001/internal/transport/http/shared"
	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// Service defines the scan engine operations the handler exposes.
type Service interface {
	RecordScan(ctx context.Context, subjectRef string, scanType models.ScanType, location, notes string) (*models.Result, error)
	ScanHistory(ctx context.Context) ([]*models.Scan, error)
	SubjectHistory(ctx context.Context, participantID uuid.UUID) ([]*models.Scan, error)
	Assignments(ctx context.Context, validatorID uuid.UUID) ([]*models.ValidatorAssignment, error)
	CreateAssignment(ctx context.Context, a *models.ValidatorAssignment) error
	RemoveAssignment(ctx context.Context, id uuid.UUID) error
	MealValidations(ctx context.Context, participantID uuid.UUID) ([]*models.MealValidation, error)
}

// Handler serves validator scan submission and scheduling.
type Handler struct {
	scans     Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(scans Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{scans: scans, logger: logger, validator: validator}
}

// Register mounts the scan routes. Everything requires at least the
// validator role; scheduling writes are admin only.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Use(middleware.RequireRole(requestcontext.RoleValidator, h.logger))

		r.Post("/scan", h.handleRecordScan)
		r.Get("/scan/history", h.handleHistory)
		r.Get("/scan/subject/{participantID}", h.handleSubjectHistory)
		r.Get("/scan/assignments/{validatorID}", h.handleAssignments)
		r.Get("/scan/meals/{participantID}", h.handleMealValidations)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(requestcontext.RoleAdmin, h.logger))
			r.Post("/admin/assignments", h.handleCreateAssignment)
			r.Delete("/admin/assignments/{id}", h.handleRemoveAssignment)
		})
	})
}

type recordScanRequest struct {
	Subject  string `json:"subject"`
	ScanType string `json:"scan_type"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (h *Handler) handleRecordScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.scans.RecordScan(ctx, req.Subject, models.ScanType(req.ScanType), req.Location, req.Notes)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to record scan", "scan_type", req.ScanType, "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	// Duplicate side effects are 200s with success=false; the scan itself
	// was recorded either way.
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	scans, err := h.scans.ScanHistory(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, scans)
}

func (h *Handler) handleSubjectHistory(w http.ResponseWriter, r *http.Request) {
	participantID, err := uuid.Parse(chi.URLParam(r, "participantID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid participant id"))
		return
	}
	scans, err := h.scans.SubjectHistory(r.Context(), participantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, scans)
}

func (h *Handler) handleAssignments(w http.ResponseWriter, r *http.Request) {
	validatorID, err := uuid.Parse(chi.URLParam(r, "validatorID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid validator id"))
		return
	}
	assignments, err := h.scans.Assignments(r.Context(), validatorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, assignments)
}

func (h *Handler) handleMealValidations(w http.ResponseWriter, r *http.Request) {
	participantID, err := uuid.Parse(chi.URLParam(r, "participantID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid participant id"))
		return
	}
	validations, err := h.scans.MealValidations(r.Context(), participantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, validations)
}

type createAssignmentRequest struct {
	ValidatorID  uuid.UUID `json:"validator_id"`
	MealType     string    `json:"meal_type"`
	Location     string    `json:"location"`
	ScheduleDate string    `json:"schedule_date"`
	ScheduleTime string    `json:"schedule_time"`
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	assignment := &models.ValidatorAssignment{
		ValidatorID:  req.ValidatorID,
		MealType:     models.ScanType(req.MealType),
		Location:     req.Location,
		ScheduleDate: req.ScheduleDate,
		ScheduleTime: req.ScheduleTime,
	}
	if err := h.scans.CreateAssignment(r.Context(), assignment); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid assignment id"))
		return
	}
	if err := h.scans.RemoveAssignment(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
