// Package peer implements the service trust gate: authentication for
// calls originating from other internal servers, using network origin
// plus a shared secret instead of a user session.
//
// The scheme is deliberately static and symmetric: a fixed allowlist of
// (IP, token) pairs, no expiry, no renewal. Tokens are hashed with
// SHA-256 and compared in constant time.
package peer

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/observability"
)

// Credential is a single allowlist entry identifying a trusted caller.
type Credential struct {
	IP    string
	Token string
}

// Authorizer validates a caller's (IP, token) pair. Implemented by the
// directory; the shipped implementation is the config-backed Allowlist.
type Authorizer interface {
	AuthorizePeer(ctx context.Context, ip, token string) error
}

// Allowlist is a fixed set of trusted (IP, token) pairs. Tokens are
// hashed at construction; plaintext tokens are not retained.
type Allowlist struct {
	entries []entry
}

type entry struct {
	ip        string
	tokenHash [32]byte
}

// NewAllowlist builds an allowlist from configured credentials.
func NewAllowlist(creds []Credential) *Allowlist {
	a := &Allowlist{}
	for _, c := range creds {
		a.entries = append(a.entries, entry{
			ip:        c.IP,
			tokenHash: sha256.Sum256([]byte(c.Token)),
		})
	}
	return a
}

// AuthorizePeer requires an exact match on both fields of the same
// entry: a token valid for one entry's IP does not validate against a
// different entry's IP. Returns auth.ErrNotAuthenticated otherwise.
func (a *Allowlist) AuthorizePeer(_ context.Context, ip, token string) error {
	tokenHash := sha256.Sum256([]byte(token))
	for _, e := range a.entries {
		ipMatch := subtle.ConstantTimeCompare([]byte(e.ip), []byte(ip)) == 1
		tokenMatch := subtle.ConstantTimeCompare(e.tokenHash[:], tokenHash[:]) == 1
		if ipMatch && tokenMatch {
			return nil
		}
	}
	return auth.ErrNotAuthenticated
}

// Gate is the HTTP middleware enforcing peer trust on internal routes.
// It bypasses the session gate entirely.
type Gate struct {
	authorizer Authorizer
}

// NewGate creates the gate with the given authorizer.
func NewGate(a Authorizer) *Gate {
	return &Gate{authorizer: a}
}

const unauthenticatedBody = `{"error":{"type":"not_authenticated","message":"not authenticated"}}`

// Middleware extracts the caller IP from the raw connection (never from
// forwarding headers, which are spoofable) and a bearer token from the
// Authorization header, rejecting immediately when either is absent.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r)
		token := bearerToken(r)

		if ip == "" || token == "" {
			g.deny(w, r, "missing peer credential")
			return
		}

		if err := g.authorizer.AuthorizePeer(r.Context(), ip, token); err != nil {
			g.deny(w, r, "peer credential rejected")
			return
		}

		observability.PeerDecisionsTotal.WithLabelValues("allowed").Inc()
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, reason string) {
	observability.PeerDecisionsTotal.WithLabelValues("denied").Inc()
	slog.Warn("peer authentication failed",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"reason", reason,
	)
	http.Error(w, unauthenticatedBody, http.StatusUnauthorized)
}

// remoteIP returns the connection-level caller address without the port.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (some test servers).
		return r.RemoteAddr
	}
	return host
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
