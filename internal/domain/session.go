package domain

import "time"

// Session lifetimes. Persistent sessions ("remember me") live a year and
// slide forward on use; regular sessions are fixed at 30 days.
const (
	SessionTTL           = 30 * 24 * time.Hour
	PersistentSessionTTL = 365 * 24 * time.Hour
)

// Session is a server-side refresh session. Only the SHA-256 hash of the
// refresh token is stored; the token itself exists solely in the client
// cookie.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TokenHash  string    `json:"-"`
	UserAgent  string    `json:"user_agent,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Persistent bool      `json:"persistent"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTLFor returns the session lifetime for the given persistence mode.
func TTLFor(persistent bool) time.Duration {
	if persistent {
		return PersistentSessionTTL
	}
	return SessionTTL
}
