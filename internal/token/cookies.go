package token

import (
	"net/http"
	"time"
)

// CookieOptions control how auth cookies are written
type CookieOptions struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SetAccessCookie writes the access token cookie. Max-Age follows the token's
// own expiry when it is shorter than the configured TTL.
func SetAccessCookie(w http.ResponseWriter, opts CookieOptions, tok string) {
	ttl := Lifetime(tok, opts.AccessTTL, time.Now())
	if ttl <= 0 {
		ttl = opts.AccessTTL
	}
	http.SetCookie(w, authCookie(opts, AccessCookieName, tok, ttl))
}

// SetRefreshCookie writes the refresh token cookie
func SetRefreshCookie(w http.ResponseWriter, opts CookieOptions, tok string) {
	http.SetCookie(w, authCookie(opts, RefreshCookieName, tok, opts.RefreshTTL))
}

// ClearAuthCookies expires both auth cookies
func ClearAuthCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		c := authCookie(opts, name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func authCookie(opts CookieOptions, name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
