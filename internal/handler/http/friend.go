package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarelab/wayfare/internal/service"
	"github.com/wayfarelab/wayfare/pkg/httputil"
	"github.com/wayfarelab/wayfare/pkg/validator"
)

// FriendHandler handles friendship endpoints.
type FriendHandler struct {
	service *service.FriendService
	logger  *slog.Logger
}

// NewFriendHandler creates a new friend HTTP handler.
func NewFriendHandler(svc *service.FriendService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{service: svc, logger: logger}
}

// FriendRequestRequest is the JSON request body for sending a friend request.
type FriendRequestRequest struct {
	Usertag string `json:"usertag" validate:"required,usertag"`
}

// Request handles POST /api/friends/requests.
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req FriendRequestRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	f, err := h.service.Request(r.Context(), p.UserID, req.Usertag)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: f})
}

// Accept handles POST /api/friends/requests/{id}/accept.
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Accept(r.Context(), p.UserID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "accepted"}})
}

// Decline handles DELETE /api/friends/requests/{id}.
func (h *FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Decline(r.Context(), p.UserID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "declined"}})
}

// Unfriend handles DELETE /api/friends/{userId}.
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	otherID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	if err := h.service.Unfriend(r.Context(), p.UserID, otherID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/friends.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	friends, err := h.service.Friends(r.Context(), p.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: friends})
}

// Pending handles GET /api/friends/requests.
func (h *FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	pending, err := h.service.Pending(r.Context(), p.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pending})
}
