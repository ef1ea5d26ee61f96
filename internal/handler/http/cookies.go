package http

import (
	"net/http"
	"time"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/domain"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// cookieWriter issues and clears the auth cookie pair. In production the
// frontend runs on another origin, so cookies need SameSite=None and Secure;
// in development Lax works over plain http.
type cookieWriter struct {
	production bool
}

func (c cookieWriter) base() http.Cookie {
	cookie := http.Cookie{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if c.production {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}

// setAuthCookies writes both tokens. The refresh cookie's lifetime matches
// the session's persistence mode.
func (c cookieWriter) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, persistent bool) {
	c.setAccessCookie(w, accessToken)

	refresh := c.base()
	refresh.Name = refreshTokenCookie
	refresh.Value = refreshToken
	refresh.MaxAge = int(domain.TTLFor(persistent) / time.Second)
	http.SetCookie(w, &refresh)
}

// setAccessCookie writes only the access token cookie, used on refresh.
func (c cookieWriter) setAccessCookie(w http.ResponseWriter, accessToken string) {
	access := c.base()
	access.Name = accessTokenCookie
	access.Value = accessToken
	access.MaxAge = int(auth.AccessTokenTTL / time.Second)
	http.SetCookie(w, &access)
}

// clearAuthCookies expires both cookies.
func (c cookieWriter) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := c.base()
		cookie.Name = name
		cookie.Value = ""
		cookie.MaxAge = -1
		http.SetCookie(w, &cookie)
	}
}
