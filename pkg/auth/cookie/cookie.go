// Package cookie implements the transport envelope for the session token
// pair: two HTTP-only cookies carrying the access and refresh tokens.
//
// The pair is always set or cleared together; only the sliding renewal
// in the session gate writes the access cookie on its own.
package cookie

import (
	"net/http"
	"time"
)

// Fixed cookie names for the token pair.
const (
	AccessName  = "pforte_access"
	RefreshName = "pforte_refresh"
)

// Jar writes and reads the session cookie pair with the configured
// attributes. It is an immutable value constructed once at startup.
type Jar struct {
	// Production enables the Secure flag and Domain scoping.
	Production bool

	// Domain is the cookie domain applied in production.
	Domain string

	// MaxAge is the lifetime of both cookies, derived from the
	// configured refresh token lifetime.
	MaxAge time.Duration
}

// Read returns the raw access and refresh tokens from the request.
// A missing cookie yields an empty string.
func (j Jar) Read(r *http.Request) (access, refresh string) {
	if c, err := r.Cookie(AccessName); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshName); err == nil {
		refresh = c.Value
	}
	return access, refresh
}

// WritePair sets both cookies on the response. Used at login.
func (j Jar) WritePair(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, j.make(AccessName, access, int(j.MaxAge.Seconds())))
	http.SetCookie(w, j.make(RefreshName, refresh, int(j.MaxAge.Seconds())))
}

// WriteAccess sets only the access cookie. Used by the sliding renewal;
// the refresh cookie is left untouched.
func (j Jar) WriteAccess(w http.ResponseWriter, access string) {
	http.SetCookie(w, j.make(AccessName, access, int(j.MaxAge.Seconds())))
}

// Clear expires both cookies. Used at logout.
func (j Jar) Clear(w http.ResponseWriter) {
	http.SetCookie(w, j.make(AccessName, "", -1))
	http.SetCookie(w, j.make(RefreshName, "", -1))
}

// make builds a cookie with the fixed attributes: HttpOnly, Path=/,
// SameSite=Lax, and Secure plus Domain scoping only in production.
func (j Jar) make(name, value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if j.Production {
		c.Secure = true
		c.Domain = j.Domain
	}
	return c
}
