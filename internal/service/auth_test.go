package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wayfarelab/wayfare/internal/domain"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

func newTestAuthService(users *mockUserRepository, sessions *mockSessionRepository) *AuthService {
	return NewAuthService(users, sessions, newTestTokenManager(), newTestEventProducer(), newTestLogger())
}

func testClient() ClientInfo {
	return ClientInfo{UserAgent: "test-agent", IPAddress: "127.0.0.1"}
}

// --- Register ---

func TestAuthService_Register_Success(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@example.com" &&
			u.Usertag == "alice" &&
			u.Role == domain.RoleUser &&
			u.Visibility == domain.VisibilityPublic &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) == nil
	})).Return(nil)
	sessions.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)

	creds, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Usertag:  "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	}, testClient())

	require.NoError(t, err)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)
	assert.False(t, creds.Session.Persistent)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestAuthService_Register_InvalidUsertag(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepository), new(mockSessionRepository))

	for _, usertag := range []string{"ab", "UPPER", "has space", "way-too-long-usertag-name", "emoji😀"} {
		_, err := svc.Register(context.Background(), RegisterInput{
			Name:     "Alice",
			Usertag:  usertag,
			Email:    "alice@example.com",
			Password: "secret123",
		}, testClient())
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "usertag %q should be rejected", usertag)
	}
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepository), new(mockSessionRepository))

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Usertag:  "alice",
		Email:    "alice@example.com",
		Password: "12345",
	}, testClient())

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// --- Login ---

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "secret123",
	}, testClient())

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Неверный email или пароль", appErr.Message)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	hash, err := bcrypt.GenerateFromPassword([]byte("right password"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
	}, nil)

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "wrong password",
	}, testClient())

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	// Same message as an unknown email, so accounts cannot be probed.
	assert.Equal(t, "Неверный email или пароль", appErr.Message)
}

func TestAuthService_Login_SessionLifetimes(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: "user-1", Email: "alice@example.com", PasswordHash: string(hash)}

	cases := []struct {
		name       string
		rememberMe bool
		wantTTL    time.Duration
	}{
		{"regular session lives 30 days", false, domain.SessionTTL},
		{"persistent session lives a year", true, domain.PersistentSessionTTL},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(mockUserRepository)
			sessions := new(mockSessionRepository)
			svc := newTestAuthService(users, sessions)

			users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

			var stored *domain.Session
			sessions.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).
				Run(func(args mock.Arguments) {
					stored = args.Get(1).(*domain.Session)
				}).Return(nil)

			before := time.Now().UTC()
			creds, err := svc.Login(context.Background(), LoginInput{
				Email:      "alice@example.com",
				Password:   "secret123",
				RememberMe: tc.rememberMe,
			}, testClient())
			after := time.Now().UTC()

			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, tc.rememberMe, stored.Persistent)
			assert.False(t, stored.ExpiresAt.Before(before.Add(tc.wantTTL)))
			assert.False(t, stored.ExpiresAt.After(after.Add(tc.wantTTL)))
			assert.Equal(t, stored.ID, creds.Session.ID)
		})
	}
}

func TestAuthService_CreateSession_StoresHashNotToken(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	var stored *domain.Session
	sessions.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*domain.Session)
		}).Return(nil)

	creds, err := svc.CreateSession(context.Background(), &domain.User{ID: "user-1"}, testClient(), false)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.NotEqual(t, creds.RefreshToken, stored.TokenHash)
	assert.Equal(t, hashToken(creds.RefreshToken), stored.TokenHash)
	assert.Len(t, stored.TokenHash, 64)
}

// --- VerifySession ---

func TestAuthService_VerifySession_UnknownToken(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	sessions.On("GetByTokenHash", mock.Anything, mock.Anything).
		Return(nil, apperrors.NotFound("session", "x"))

	_, err := svc.VerifySession(context.Background(), "some-token")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_VerifySession_ExpiredLazyDelete(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	expired := &domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	sessions.On("GetByTokenHash", mock.Anything, mock.Anything).Return(expired, nil)
	sessions.On("Delete", mock.Anything, "session-1").Return(nil)

	_, err := svc.VerifySession(context.Background(), "some-token")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	// The expired row must be deleted on read.
	sessions.AssertCalled(t, "Delete", mock.Anything, "session-1")
}

func TestAuthService_VerifySession_RegularSessionNotExtended(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	live := &domain.Session{
		ID:         "session-1",
		UserID:     "user-1",
		Persistent: false,
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}
	sessions.On("GetByTokenHash", mock.Anything, mock.Anything).Return(live, nil)

	got, err := svc.VerifySession(context.Background(), "some-token")
	require.NoError(t, err)
	assert.Equal(t, "session-1", got.ID)
	sessions.AssertNotCalled(t, "ExtendExpiry", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_VerifySession_PersistentSlidesForward(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	oldExpiry := time.Now().UTC().Add(100 * 24 * time.Hour)
	live := &domain.Session{
		ID:         "session-1",
		UserID:     "user-1",
		Persistent: true,
		ExpiresAt:  oldExpiry,
	}
	sessions.On("GetByTokenHash", mock.Anything, mock.Anything).Return(live, nil)

	var extendedTo time.Time
	sessions.On("ExtendExpiry", mock.Anything, "session-1", mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			extendedTo = args.Get(2).(time.Time)
		}).Return(nil)

	before := time.Now().UTC()
	got, err := svc.VerifySession(context.Background(), "some-token")
	require.NoError(t, err)

	assert.False(t, extendedTo.Before(before.Add(domain.PersistentSessionTTL)))
	assert.Equal(t, extendedTo, got.ExpiresAt)
}

func TestAuthService_VerifySession_ExtendFailureIsNotFatal(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	oldExpiry := time.Now().UTC().Add(24 * time.Hour)
	live := &domain.Session{ID: "session-1", Persistent: true, ExpiresAt: oldExpiry}
	sessions.On("GetByTokenHash", mock.Anything, mock.Anything).Return(live, nil)
	sessions.On("ExtendExpiry", mock.Anything, "session-1", mock.Anything).
		Return(errors.New("connection reset"))

	got, err := svc.VerifySession(context.Background(), "some-token")
	require.NoError(t, err)
	// The stored expiry stands; renewal retries on the next refresh.
	assert.Equal(t, oldExpiry, got.ExpiresAt)
}

// --- Refresh ---

func TestAuthService_Refresh_IssuesAccessTokenWithoutRotation(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	live := &domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	sessions.On("GetByTokenHash", mock.Anything, mock.Anything).Return(live, nil)

	accessToken, session, err := svc.Refresh(context.Background(), "refresh-token")
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.Equal(t, "session-1", session.ID)

	claims, err := newTestTokenManager().ValidateAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)

	// No new session row, no token hash update: the refresh token is stable.
	sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Session management ---

func TestAuthService_RevokeSession_OwnershipEnforced(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	sessions.On("ListByUser", mock.Anything, "user-1").Return([]domain.Session{
		{ID: "session-1", UserID: "user-1"},
	}, nil)

	// A session that is not in the user's list is reported as not found.
	err := svc.RevokeSession(context.Background(), "user-1", "someone-elses-session")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAuthService_RevokeSession_Own(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	sessions.On("ListByUser", mock.Anything, "user-1").Return([]domain.Session{
		{ID: "session-1", UserID: "user-1"},
		{ID: "session-2", UserID: "user-1"},
	}, nil)
	sessions.On("Delete", mock.Anything, "session-2").Return(nil)

	err := svc.RevokeSession(context.Background(), "user-1", "session-2")
	assert.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestAuthService_RevokeAllSessions(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	sessions.On("DeleteByUser", mock.Anything, "user-1").Return(nil)

	err := svc.RevokeAllSessions(context.Background(), "user-1")
	assert.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionRepository)
	svc := newTestAuthService(users, sessions)

	sessions.On("Delete", mock.Anything, "session-1").
		Return(apperrors.NotFound("session", "session-1"))

	assert.NoError(t, svc.Logout(context.Background(), "session-1"))
}
