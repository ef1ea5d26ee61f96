package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/httputil"
	"github.com/wayfarelab/wayfare/pkg/logger"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal identifies the authenticated caller for the duration of a
// request.
type Principal struct {
	UserID    string
	SessionID string
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// withPrincipal is used by handler tests to fake authentication.
func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Authenticate validates the access token and stores the principal in the
// request context. The token is read from the accessToken cookie first, then
// from the Authorization header as a Bearer token. A missing token yields
// 401 "not authorized"; a present but bad token yields 401 "invalid token".
func Authenticate(tokens *auth.TokenManager, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFrom(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("not authorized"), fallback)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid token"), fallback)
				return
			}

			ctx := withPrincipal(r.Context(), Principal{
				UserID:    claims.UserID,
				SessionID: claims.SessionID,
			})
			ctx = logger.WithUserID(ctx, claims.UserID)

			// Re-enrich the request logger so downstream logs carry the user.
			l := logger.FromContext(ctx)
			ctx = logger.NewContext(ctx, l.With(slog.String("user_id", claims.UserID)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

// RequireAdmin loads the caller's role and rejects non-admins with 403. It
// runs after Authenticate.
func RequireAdmin(users repository.UserRepository, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("not authorized"), fallback)
				return
			}

			user, err := users.GetByID(r.Context(), p.UserID)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("not authorized"), fallback)
				return
			}
			if user.Role != domain.RoleAdmin {
				httputil.WriteError(w, r, apperrors.Forbidden("forbidden"), fallback)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces application/json on requests carrying a body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
