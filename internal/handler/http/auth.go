package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarelab/wayfare/internal/service"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/httputil"
	"github.com/wayfarelab/wayfare/pkg/validator"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookies cookieWriter
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, production bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		cookies: cookieWriter{production: production},
		logger:  logger,
	}
}

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Usertag  string `json:"usertag" validate:"required,usertag,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	creds, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Usertag:  req.Usertag,
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.setAuthCookies(w, creds.AccessToken, creds.RefreshToken, creds.Session.Persistent)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: creds.User})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	creds, err := h.service.Login(r.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}, clientInfo(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.setAuthCookies(w, creds.AccessToken, creds.RefreshToken, creds.Session.Persistent)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: creds.User})
}

// RevokeSessionRequest is the JSON request body for DELETE /api/auth/sessions.
type RevokeSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// Refresh handles POST /api/auth/refresh. It reads the refresh token cookie
// and issues a fresh access token cookie; the refresh token stays as is.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("not authorized"), h.logger)
		return
	}

	accessToken, _, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.cookies.clearAuthCookies(w)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.setAccessCookie(w, accessToken)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "refreshed"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	user, err := h.service.Me(r.Context(), p.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Logout handles POST /api/auth/logout. The current session dies and both
// cookies are cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.service.Logout(r.Context(), p.SessionID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clearAuthCookies(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "logged out"}})
}

// ListSessions handles GET /api/auth/sessions.
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	sessions, err := h.service.ListSessions(r.Context(), p.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessions})
}

// RevokeSession handles DELETE /api/auth/sessions (body {session_id}) and
// DELETE /api/auth/sessions/{id}. Both forms revoke exactly one session.
func (h *AuthHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	raw := chi.URLParam(r, "id")
	if raw == "" {
		var req RevokeSessionRequest
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
		raw = req.SessionID
	}

	id, ok := httputil.ParseUUID(w, raw)
	if !ok {
		return
	}

	if err := h.service.RevokeSession(r.Context(), p.UserID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "revoked"}})
}

// RevokeAllSessions handles DELETE /api/auth/sessions/all. The caller's own
// session dies too, so the cookies are cleared.
func (h *AuthHandler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.service.RevokeAllSessions(r.Context(), p.UserID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clearAuthCookies(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "revoked"}})
}
