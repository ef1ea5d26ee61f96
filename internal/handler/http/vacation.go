package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/service"
	"github.com/wayfarelab/wayfare/pkg/httputil"
	"github.com/wayfarelab/wayfare/pkg/pagination"
	"github.com/wayfarelab/wayfare/pkg/validator"
)

// VacationHandler handles vacation and membership endpoints.
type VacationHandler struct {
	service *service.VacationService
	logger  *slog.Logger
}

// NewVacationHandler creates a new vacation HTTP handler.
func NewVacationHandler(svc *service.VacationService, logger *slog.Logger) *VacationHandler {
	return &VacationHandler{service: svc, logger: logger}
}

// CreateVacationRequest is the JSON request body for creating a vacation.
type CreateVacationRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Location    string     `json:"location" validate:"omitempty,max=200"`
	StartsOn    *time.Time `json:"starts_on"`
	EndsOn      *time.Time `json:"ends_on"`
}

// UpdateVacationRequest is the JSON request body for updating a vacation.
type UpdateVacationRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	StartsOn    *time.Time `json:"starts_on"`
	EndsOn      *time.Time `json:"ends_on"`
	CoverURL    *string    `json:"cover_url" validate:"omitempty,url"`
}

// InviteRequest is the JSON request body for inviting a member.
type InviteRequest struct {
	Usertag string `json:"usertag" validate:"required,usertag"`
}

// Create handles POST /api/vacations.
func (h *VacationHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req CreateVacationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	v, err := h.service.Create(r.Context(), p.UserID, service.CreateVacationInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsOn:    req.StartsOn,
		EndsOn:      req.EndsOn,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: v})
}

// Get handles GET /api/vacations/{id}.
func (h *VacationHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	v, err := h.service.Get(r.Context(), p.UserID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: v})
}

// List handles GET /api/vacations.
func (h *VacationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	page := pagination.FromRequest(r)

	items, total, err := h.service.List(r.Context(), p.UserID, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(items, total, page.Page, page.PerPage))
}

// Update handles PUT /api/vacations/{id}. Omitted fields are left unchanged.
func (h *VacationHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateVacationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	v, err := h.service.Update(r.Context(), p.UserID, id.String(), service.UpdateVacationInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsOn:    req.StartsOn,
		EndsOn:      req.EndsOn,
		CoverURL:    req.CoverURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: v})
}

// Delete handles DELETE /api/vacations/{id}.
func (h *VacationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Invite handles POST /api/vacations/{id}/members.
func (h *VacationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req InviteRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	m, err := h.service.Invite(r.Context(), p.UserID, id.String(), req.Usertag)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: m})
}

// AcceptInvite handles POST /api/vacations/{id}/members/accept.
func (h *VacationHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.AcceptInvite(r.Context(), p.UserID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": domain.MemberStatusAccepted},
	})
}

// RemoveMember handles DELETE /api/vacations/{id}/members/{userId}.
func (h *VacationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	memberID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), p.UserID, id.String(), memberID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Members handles GET /api/vacations/{id}/members.
func (h *VacationHandler) Members(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	members, err := h.service.Members(r.Context(), p.UserID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: members})
}
