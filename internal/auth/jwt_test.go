package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-access-secret", "test-refresh-secret")
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("completely-different-secret", "test-refresh-secret")

	token, err := tm.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_RefreshTokenRejected(t *testing.T) {
	tm := newTestTokenManager()

	// A refresh token is signed with the other secret and must never pass
	// access validation.
	refresh, err := tm.GenerateRefreshToken()
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	tm := newTestTokenManager()

	now := time.Now().UTC()
	claims := &AccessClaims{
		UserID:    "user-1",
		SessionID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-access-secret"))
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestValidateAccessToken_WrongAlgorithm(t *testing.T) {
	tm := newTestTokenManager()

	// alg=none tokens must fail closed.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &AccessClaims{UserID: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	tm := newTestTokenManager()

	_, err := tm.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	tm := newTestTokenManager()

	a, err := tm.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := tm.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
