// Package session implements the session gate: per-request cookie
// authentication with a sliding renewal of the access token.
//
// The gate verifies both tokens of the cookie pair, renews a lapsed
// access token against a live refresh token, and fails closed on any
// inconclusive verification. It never contacts the directory; the token
// payload is trusted for authentication identity only.
package session

import (
	"log/slog"
	"net/http"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/auth/cookie"
	"github.com/pforte-dev/pforte/pkg/auth/token"
	"github.com/pforte-dev/pforte/pkg/debug"
	"github.com/pforte-dev/pforte/pkg/observability"
)

// defaultGender is applied when a refresh token carries no gender claim
// during a sliding renewal.
const defaultGender = "male"

// Gate is the session gate. It decides per-request identity before any
// handler runs on a protected route, and performs a sliding renewal of
// the access token when needed.
type Gate struct {
	codec      *token.Codec
	jar        cookie.Jar
	classifier *auth.Classifier
}

// New creates the session gate. The classifier decides which routes
// bypass it entirely.
func New(codec *token.Codec, jar cookie.Jar, classifier *auth.Classifier) *Gate {
	if classifier == nil {
		classifier = auth.NewClassifier()
	}
	return &Gate{codec: codec, jar: jar, classifier: classifier}
}

const unauthenticatedBody = `{"error":{"type":"not_authenticated","message":"not authenticated"}}`

// Middleware enforces the session decision table:
//
//	access valid,   refresh valid   -> attach access principal
//	access invalid, refresh valid   -> sliding renewal, attach rebuilt principal
//	access valid,   refresh invalid -> not authenticated
//	neither valid                   -> not authenticated
//
// A valid access token alone is never sufficient: both cookies must be
// presently readable for the session to be considered live.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.classifier.IsPublic(r.URL.Path) {
			observability.SessionDecisionsTotal.WithLabelValues("public").Inc()
			next.ServeHTTP(w, r)
			return
		}

		accessRaw, refreshRaw := g.jar.Read(r)
		if accessRaw == "" || refreshRaw == "" {
			g.deny(w, r, "missing session cookies")
			return
		}

		accessPrincipal, accessErr := g.codec.Verify(token.Access, accessRaw)
		refreshPrincipal, refreshErr := g.codec.Verify(token.Refresh, refreshRaw)

		if refreshErr != nil {
			// Without a live refresh token the session is over, even if
			// the access token still verifies.
			g.deny(w, r, "refresh token invalid")
			return
		}

		if accessErr == nil {
			observability.SessionDecisionsTotal.WithLabelValues("allowed").Inc()
			ctx := auth.WithPrincipal(r.Context(), accessPrincipal)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Sliding renewal: one attempt per request, never chained. The
		// principal is rebuilt field-by-field from the refresh claims so
		// a stale access payload can never leak through.
		renewed := renewedPrincipal(refreshPrincipal)
		fresh, err := g.codec.Issue(token.Access, renewed)
		if err != nil {
			slog.Error("issuing renewed access token", "subject", renewed.ID, "error", err)
			g.deny(w, r, "renewal failed")
			return
		}

		// The only point where an authentication check writes to the
		// response: the refresh cookie stays untouched.
		g.jar.WriteAccess(w, fresh)

		observability.SessionDecisionsTotal.WithLabelValues("renewed").Inc()
		observability.RenewalsTotal.Inc()

		debug.Log("session", "access token renewed",
			"subject", renewed.ID,
			"path", r.URL.Path,
		)

		ctx := auth.WithPrincipal(r.Context(), &renewed)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deny terminates the request with a uniform 401; no credential
// internals are disclosed.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, reason string) {
	observability.SessionDecisionsTotal.WithLabelValues("denied").Inc()
	debug.Log("session", "authentication failed",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"reason", reason,
	)
	http.Error(w, unauthenticatedBody, http.StatusUnauthorized)
}

// renewedPrincipal rebuilds a principal from refresh token claims,
// defaulting an absent gender.
func renewedPrincipal(p *auth.Principal) auth.Principal {
	renewed := auth.Principal{
		ID:          p.ID,
		Role:        p.Role,
		FullName:    p.FullName,
		Username:    p.Username,
		Email:       p.Email,
		Gender:      p.Gender,
		Picture:     p.Picture,
		Phone:       p.Phone,
		SecondPhone: p.SecondPhone,
		Location:    p.Location,
	}
	if renewed.Gender == "" {
		renewed.Gender = defaultGender
	}
	return renewed
}
