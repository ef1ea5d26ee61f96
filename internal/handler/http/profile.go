package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/service"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/httputil"
	"github.com/wayfarelab/wayfare/pkg/validator"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	service        *service.ProfileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewProfileHandler creates a new profile HTTP handler.
func NewProfileHandler(svc *service.ProfileService, maxUploadBytes int64, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// UpdateProfileRequest is the JSON request body for profile updates. Omitted
// fields are left unchanged.
type UpdateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Bio        *string `json:"bio" validate:"omitempty,max=500"`
	Location   *string `json:"location" validate:"omitempty,max=100"`
	Website    *string `json:"website" validate:"omitempty,max=200"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=PUBLIC FRIENDS_ONLY PRIVATE"`
}

// Me handles GET /api/profile.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	user, err := h.service.GetProfile(r.Context(), p.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Update handles PUT /api/profile. Omitted fields are left unchanged.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req UpdateProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), p.UserID, service.UpdateProfileInput{
		Name:       req.Name,
		Bio:        req.Bio,
		Location:   req.Location,
		Website:    req.Website,
		Visibility: req.Visibility,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// GetPublic handles GET /api/users/{usertag}.
func (h *ProfileHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	usertag := chi.URLParam(r, "usertag")

	profile, err := h.service.GetPublicProfile(r.Context(), p.UserID, usertag)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// UploadAvatar handles PUT /api/profile/avatar.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.service.UploadAvatar)
}

// UploadBanner handles PUT /api/profile/banner.
func (h *ProfileHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.service.UploadBanner)
}

func (h *ProfileHandler) upload(w http.ResponseWriter, r *http.Request, save func(ctx context.Context, userID, contentType string, data []byte) (*domain.User, error)) {
	p, _ := PrincipalFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("upload too large"), h.logger)
		return
	}

	user, err := save(r.Context(), p.UserID, r.Header.Get("Content-Type"), data)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}
