package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "wayfare"

// AccessTokenTTL is the lifetime of an access token. The refresh token
// carries a 30-day exp claim as a secondary defense; the session row in the
// database is the authoritative expiry for the refresh flow.
const (
	AccessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// AccessClaims are the JWT claims of an access token. The session ID lets
// the server tie every request back to a revocable session row.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// refreshClaims are the claims of a refresh token. The token is opaque to
// the read path, which looks sessions up by token hash, so only a random ID
// and the expiry live here.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenManager signs and validates tokens. Access and refresh tokens use
// separate secrets so a leaked access secret cannot mint refresh tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenManager creates a token manager with the given secrets.
func NewTokenManager(accessSecret, refreshSecret string) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// GenerateAccessToken creates a signed access token for the user and session.
func (m *TokenManager) GenerateAccessToken(userID, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := &AccessClaims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signedToken, nil
}

// GenerateRefreshToken creates a signed opaque refresh token. Each call
// produces a unique token thanks to the random jti claim.
func (m *TokenManager) GenerateRefreshToken() (string, error) {
	now := time.Now().UTC()
	claims := &refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTokenTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signedToken, nil
}

// ValidateAccessToken parses and validates an access token. Every failure is
// an ordinary error return; callers treat any error as unauthenticated.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.accessSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}

	return claims, nil
}
