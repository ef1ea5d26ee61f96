package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/domain"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/httputil"
)

func testMiddlewareLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Authenticate ---

func TestAuthenticate_MissingToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret")
	handler := Authenticate(tokens, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "not authorized", errorMessage(t, rr))
}

func TestAuthenticate_BadToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret")
	handler := Authenticate(tokens, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "not-a-jwt"})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid token", errorMessage(t, rr))
}

func TestAuthenticate_ValidCookie(t *testing.T) {
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret")
	token, err := tokens.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)

	var got Principal
	handler := Authenticate(tokens, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		got = p
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "session-1", got.SessionID)
}

func TestAuthenticate_BearerHeaderFallback(t *testing.T) {
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret")
	token, err := tokens.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)

	called := false
	handler := Authenticate(tokens, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

// --- RequireAdmin ---

func TestRequireAdmin_NonAdmin(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1", Role: domain.RoleUser}, nil)

	handler := RequireAdmin(users, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "user-1", SessionID: "session-1"}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden", errorMessage(t, rr))
}

func TestRequireAdmin_UnknownUser(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "user-1").Return(nil, apperrors.ErrNotFound)

	handler := RequireAdmin(users, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "user-1", SessionID: "session-1"}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin_Admin(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, "admin-1").Return(&domain.User{ID: "admin-1", Role: domain.RoleAdmin}, nil)

	called := false
	handler := RequireAdmin(users, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "admin-1", SessionID: "session-1"}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

// --- ContentTypeJSON ---

func TestContentTypeJSON_RejectsNonJSONBody(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", resp.Error.Code)
}

func TestContentTypeJSON_AllowsJSONWithCharset(t *testing.T) {
	called := false
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

func TestContentTypeJSON_IgnoresGet(t *testing.T) {
	called := false
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/vacations", nil)
	req.Header.Set("Content-Type", "text/html")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}
