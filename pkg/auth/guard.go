package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/pforte-dev/pforte/pkg/debug"
	"github.com/pforte-dev/pforte/pkg/observability"
)

// Guard is the per-route authorization configuration: an allowed-role
// list (empty = any role) and zero or more permission groups. A group
// is a set of permissions that must all be held; satisfying any one
// group is sufficient. The struct is immutable; Middleware produces a
// stateless evaluator from it.
type Guard struct {
	// Roles lists the role names permitted on the route. Empty permits
	// any role.
	Roles []string

	// PermissionGroups is an OR of ANDs: the principal must hold every
	// permission of at least one group. Empty skips the permission
	// check.
	PermissionGroups [][]string
}

const (
	unauthenticatedBody = `{"error":{"type":"not_authenticated","message":"not authenticated"}}`
	accessDeniedBody    = `{"error":{"type":"access_denied","message":"access denied"}}`
)

// Middleware returns the route evaluator. It requires a principal from
// the session gate, resolves the current role and permission set from
// the directory (never the token payload, since tokens can outlive
// role changes), and on success attaches the resolved Access to the
// context for downstream handlers.
//
// Failure semantics: a missing principal is 401; a role or permission
// mismatch is 403; any unexpected resolver error is converted to 403
// rather than surfacing as a 500, so internal failures are not
// disclosed. Deliberate auth errors from the resolver pass through
// unchanged.
func (g Guard) Middleware(resolver AccessResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				observability.GuardDecisionsTotal.WithLabelValues("error").Inc()
				http.Error(w, unauthenticatedBody, http.StatusUnauthorized)
				return
			}

			start := time.Now()
			access, err := resolver.Access(r.Context(), p.ID)
			observability.DirectoryLookupDuration.Observe(time.Since(start).Seconds())

			if err != nil {
				outcome := "error"
				status := http.StatusForbidden
				body := accessDeniedBody
				if errors.Is(err, ErrNotAuthenticated) {
					outcome = "unauthenticated"
					status = http.StatusUnauthorized
					body = unauthenticatedBody
				} else if !errors.Is(err, ErrAccessDenied) {
					slog.Warn("directory lookup failed during authorization",
						"subject", p.ID,
						"path", r.URL.Path,
						"error", err,
					)
				}
				observability.GuardDecisionsTotal.WithLabelValues(outcome).Inc()
				http.Error(w, body, status)
				return
			}

			if len(g.Roles) > 0 && !slices.Contains(g.Roles, access.Role.Name) {
				observability.GuardDecisionsTotal.WithLabelValues("role_denied").Inc()
				debug.Log("guard", "role denied",
					"subject", p.ID,
					"role", access.Role.Name,
					"path", r.URL.Path,
				)
				http.Error(w, accessDeniedBody, http.StatusForbidden)
				return
			}

			if len(g.PermissionGroups) > 0 && !g.satisfied(access) {
				observability.GuardDecisionsTotal.WithLabelValues("permission_denied").Inc()
				debug.Log("guard", "permission denied",
					"subject", p.ID,
					"role", access.Role.Name,
					"path", r.URL.Path,
				)
				http.Error(w, accessDeniedBody, http.StatusForbidden)
				return
			}

			observability.GuardDecisionsTotal.WithLabelValues("allowed").Inc()
			ctx := WithAccess(r.Context(), access)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// satisfied reports whether at least one permission group is fully held.
func (g Guard) satisfied(access *Access) bool {
	for _, group := range g.PermissionGroups {
		held := true
		for _, perm := range group {
			if !access.HasPermission(perm) {
				held = false
				break
			}
		}
		if held {
			return true
		}
	}
	return false
}
