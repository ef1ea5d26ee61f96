package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/event"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 6

var usertagPattern = regexp.MustCompile(`^[a-z0-9-]{3,20}$`)

// AuthService implements registration, login and the session lifecycle.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *auth.TokenManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenManager,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Usertag  string
	Email    string
	Password string
}

// LoginInput holds the parameters for logging in.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// ClientInfo carries per-request client metadata recorded on sessions.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Credentials bundle everything a successful register or login yields.
type Credentials struct {
	User         *domain.User
	Session      *domain.Session
	AccessToken  string
	RefreshToken string
}

// Register creates a new user account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, client ClientInfo) (*Credentials, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if err := validateUsertag(input.Usertag); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Usertag:      input.Usertag,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Visibility:   domain.VisibilityPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	creds, err := s.CreateSession(ctx, user, client, false)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("usertag", user.Usertag),
	)

	return creds, nil
}

// Login authenticates a user by email and password and opens a session.
// The same message covers an unknown email and a wrong password, so the
// endpoint cannot be used to probe for accounts.
func (s *AuthService) Login(ctx context.Context, input LoginInput, client ClientInfo) (*Credentials, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("Неверный email или пароль")
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Неверный email или пароль")
	}

	creds, err := s.CreateSession(ctx, user, client, input.RememberMe)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.Bool("persistent", input.RememberMe),
	)

	return creds, nil
}

// CreateSession mints a refresh token, stores its hash in a new session row
// and issues an access token bound to that session. It is the single entry
// point used by both register and login.
func (s *AuthService) CreateSession(ctx context.Context, user *domain.User, client ClientInfo, persistent bool) (*Credentials, error) {
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		TokenHash:  hashToken(refreshToken),
		UserAgent:  client.UserAgent,
		IPAddress:  client.IPAddress,
		Persistent: persistent,
		ExpiresAt:  now.Add(domain.TTLFor(persistent)),
		CreatedAt:  now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &Credentials{
		User:         user,
		Session:      session,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifySession resolves a refresh token to its live session row. Expired
// rows are deleted on read (lazy expiry); persistent sessions slide forward
// to a full year from now via a conditional update that is idempotent under
// concurrent refreshes.
func (s *AuthService) VerifySession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	session, err := s.sessions.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid token")
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to delete expired session",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.Unauthorized("invalid token")
	}

	if session.Persistent {
		newExpiry := now.Add(domain.PersistentSessionTTL)
		if err := s.sessions.ExtendExpiry(ctx, session.ID, newExpiry); err != nil {
			// The current expiry is still valid; renewal will be retried on
			// the next refresh.
			s.logger.WarnContext(ctx, "failed to extend persistent session",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		} else {
			session.ExpiresAt = newExpiry
		}
	}

	return session, nil
}

// Refresh verifies the refresh token and issues a new access token. The
// refresh token and session row are deliberately not rotated; the session
// reaper and explicit revocation bound the token's useful life.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, *domain.Session, error) {
	session, err := s.VerifySession(ctx, refreshToken)
	if err != nil {
		return "", nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(session.UserID, session.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}

	return accessToken, session, nil
}

// Me returns the authenticated user's own record.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("not authorized")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// Logout deletes the session. Logging out an already-deleted session is not
// an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// ListSessions returns the user's live sessions, newest first.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// RevokeSession deletes one of the user's own sessions. A session belonging
// to another user is reported as not found rather than forbidden.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	for _, sess := range sessions {
		if sess.ID == sessionID {
			if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("delete session: %w", err)
			}
			return nil
		}
	}

	return apperrors.NotFound("session", sessionID)
}

// RevokeAllSessions deletes every session of the user. All refresh tokens
// die immediately; outstanding access tokens expire within the hour.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	s.logger.InfoContext(ctx, "all sessions revoked", slog.String("user_id", userID))

	return nil
}

// hashToken returns the SHA-256 hex digest of a refresh token. Only the
// digest is persisted.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

/// validateUsertag enforces the usertag format: lowercase letters, digits and
// hyphens, 3 to 20 characters.
func validateUsertag(usertag string) error {
	if !usertagPattern.MatchString(usertag) {
		return apperrors.InvalidInput("usertag must be 3-20 characters of lowercase letters, digits and hyphens")
	}
	return nil
}

// validatePassword enforces the minimum password length.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
