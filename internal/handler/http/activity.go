package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarelab/wayfare/internal/service"
	"github.com/wayfarelab/wayfare/pkg/httputil"
	"github.com/wayfarelab/wayfare/pkg/validator"
)

// ActivityHandler handles itinerary activity endpoints.
type ActivityHandler struct {
	service *service.ActivityService
	logger  *slog.Logger
}

// NewActivityHandler creates a new activity HTTP handler.
func NewActivityHandler(svc *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: svc, logger: logger}
}

// CreateActivityRequest is the JSON request body for adding an activity.
type CreateActivityRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Location    string     `json:"location" validate:"omitempty,max=200"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// UpdateActivityRequest is the JSON request body for updating an activity.
type UpdateActivityRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Create handles POST /api/vacations/{id}/activities.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	vacationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateActivityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	a, err := h.service.Create(r.Context(), p.UserID, vacationID.String(), service.CreateActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: a})
}

// List handles GET /api/vacations/{id}/activities.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	vacationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	activities, err := h.service.List(r.Context(), p.UserID, vacationID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: activities})
}

// Update handles PATCH /api/activities/{id}.
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	a, err := h.service.Update(r.Context(), p.UserID, id.String(), service.UpdateActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: a})
}

// Delete handles DELETE /api/activities/{id}.
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p.UserID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
