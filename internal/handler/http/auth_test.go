package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/event"
	"github.com/wayfarelab/wayfare/internal/service"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/httputil"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsertag(ctx context.Context, usertag string) (*domain.User, error) {
	args := m.Called(ctx, usertag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *mockUserRepo) AddExperience(ctx context.Context, id string, points int) error {
	args := m.Called(ctx, id, points)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	args := m.Called(ctx, id, expiresAt)
	return args.Error(0)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

// ============================================================================
// Fixture
// ============================================================================

type authTestFixture struct {
	handler  *AuthHandler
	users    *mockUserRepo
	sessions *mockSessionRepo
	tokens   *auth.TokenManager
}

func newAuthTestFixture(t *testing.T) *authTestFixture {
	t.Helper()

	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	svc := service.NewAuthService(users, sessions, tokens, event.NewProducer(nil, logger), logger)
	handler := NewAuthHandler(svc, false, logger)

	return &authTestFixture{handler: handler, users: users, sessions: sessions, tokens: tokens}
}

func cookieByName(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rr.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Message
}

// ============================================================================
// Register
// ============================================================================

func TestAuthHandler_Register_SetsBothCookies(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(RegisterRequest{
		Name:     "Alice",
		Usertag:  "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.handler.Register(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	access := cookieByName(t, rr, "accessToken")
	require.NotNil(t, access, "accessToken cookie must be set")
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, int(time.Hour/time.Second), access.MaxAge)

	refresh := cookieByName(t, rr, "refreshToken")
	require.NotNil(t, refresh, "refreshToken cookie must be set")
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, int(domain.SessionTTL/time.Second), refresh.MaxAge)

	// The access cookie must carry a token our own validator accepts.
	_, err := f.tokens.ValidateAccessToken(access.Value)
	assert.NoError(t, err)
}

func TestAuthHandler_Register_InvalidUsertag(t *testing.T) {
	f := newAuthTestFixture(t)

	body, _ := json.Marshal(RegisterRequest{
		Name:     "Alice",
		Usertag:  "Not Valid!",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.handler.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ============================================================================
// Login
// ============================================================================

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	f := newAuthTestFixture(t)

	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}, nil)

	body, _ := json.Marshal(LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.handler.Login(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Неверный email или пароль", errorMessage(t, rr))
	assert.Nil(t, cookieByName(t, rr, "accessToken"))
}

func TestAuthHandler_Login_RememberMeExtendsRefreshCookie(t *testing.T) {
	f := newAuthTestFixture(t)

	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}, nil)
	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(LoginRequest{
		Email:      "alice@example.com",
		Password:   "correct-password",
		RememberMe: true,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.handler.Login(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	refresh := cookieByName(t, rr, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, int(domain.PersistentSessionTTL/time.Second), refresh.MaxAge)
}

// ============================================================================
// Refresh
// ============================================================================

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	f := newAuthTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	rr := httptest.NewRecorder()

	f.handler.Refresh(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "not authorized", errorMessage(t, rr))
}

func TestAuthHandler_Refresh_SetsNewAccessCookieOnly(t *testing.T) {
	f := newAuthTestFixture(t)

	refreshToken, err := f.tokens.GenerateRefreshToken()
	require.NoError(t, err)

	now := time.Now().UTC()
	f.sessions.On("GetByTokenHash", mock.Anything, mock.Anything).Return(&domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		ExpiresAt: now.Add(domain.SessionTTL),
		CreatedAt: now,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
	rr := httptest.NewRecorder()

	f.handler.Refresh(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	access := cookieByName(t, rr, "accessToken")
	require.NotNil(t, access)
	claims, err := f.tokens.ValidateAccessToken(access.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)

	// The refresh token is not rotated, so no refreshToken cookie is written.
	assert.Nil(t, cookieByName(t, rr, "refreshToken"))
}

func TestAuthHandler_Refresh_UnknownTokenClearsCookies(t *testing.T) {
	f := newAuthTestFixture(t)

	f.sessions.On("GetByTokenHash", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "stale-token"})
	rr := httptest.NewRecorder()

	f.handler.Refresh(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid token", errorMessage(t, rr))

	access := cookieByName(t, rr, "accessToken")
	require.NotNil(t, access, "stale access cookie must be expired")
	assert.Equal(t, -1, access.MaxAge)
	refresh := cookieByName(t, rr, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, -1, refresh.MaxAge)
}

// ============================================================================
// Session revocation
// ============================================================================

func TestAuthHandler_RevokeSession_BodyFormRevokesOnlyThatSession(t *testing.T) {
	f := newAuthTestFixture(t)

	sessionID := "0c2a4a3e-35c1-4c7b-9a76-9f1f62f3a111"
	f.sessions.On("ListByUser", mock.Anything, "user-1").Return([]domain.Session{
		{ID: sessionID, UserID: "user-1"},
		{ID: "5d8b9e61-1d3f-4e02-8a11-2b6a7c9d0222", UserID: "user-1"},
	}, nil)
	f.sessions.On("Delete", mock.Anything, sessionID).Return(nil)

	body, _ := json.Marshal(RevokeSessionRequest{SessionID: sessionID})
	req := httptest.NewRequest(http.MethodDelete, "/api/auth/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "user-1", SessionID: sessionID}))
	rr := httptest.NewRecorder()

	f.handler.RevokeSession(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	f.sessions.AssertCalled(t, "Delete", mock.Anything, sessionID)
	f.sessions.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
}

func TestAuthHandler_RevokeSession_OtherUsersSessionIsNotFound(t *testing.T) {
	f := newAuthTestFixture(t)

	f.sessions.On("ListByUser", mock.Anything, "user-1").Return([]domain.Session{}, nil)

	body, _ := json.Marshal(RevokeSessionRequest{SessionID: "0c2a4a3e-35c1-4c7b-9a76-9f1f62f3a111"})
	req := httptest.NewRequest(http.MethodDelete, "/api/auth/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "user-1", SessionID: "session-1"}))
	rr := httptest.NewRecorder()

	f.handler.RevokeSession(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ============================================================================
// Logout
// ============================================================================

func TestAuthHandler_Logout_ClearsCookies(t *testing.T) {
	f := newAuthTestFixture(t)

	f.sessions.On("Delete", mock.Anything, "session-1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(withPrincipal(req.Context(), Principal{UserID: "user-1", SessionID: "session-1"}))
	rr := httptest.NewRecorder()

	f.handler.Logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieByName(t, rr, name)
		require.NotNil(t, c, "%s cookie must be cleared", name)
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}
}
