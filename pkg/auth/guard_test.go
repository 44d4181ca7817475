package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pforte-dev/pforte/pkg/observability"
)

// stubResolver returns a fixed access or error.
type stubResolver struct {
	access *Access
	err    error
}

func (s *stubResolver) Access(context.Context, string) (*Access, error) {
	return s.access, s.err
}

func adminAccess(perms ...string) *Access {
	return &Access{
		Role:        Role{ID: "r-1", Name: "admin", Color: "#d32f2f"},
		Permissions: perms,
	}
}

// runGuard sends an authenticated request through the guard and
// reports the status plus the Access the handler saw.
func runGuard(t *testing.T, g Guard, resolver AccessResolver, principal *Principal) (int, *Access) {
	t.Helper()

	var seen *Access
	handler := g.Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccessFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/v1/thing", nil)
	if principal != nil {
		r = r.WithContext(WithPrincipal(r.Context(), principal))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec.Code, seen
}

func TestGuard_RequiresPrincipal(t *testing.T) {
	status, _ := runGuard(t, Guard{}, &stubResolver{access: adminAccess()}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestGuard_EmptyConfigAllowsAnyRole(t *testing.T) {
	status, seen := runGuard(t, Guard{}, &stubResolver{access: adminAccess()}, &Principal{ID: "u-1"})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if seen == nil || seen.Role.Name != "admin" {
		t.Errorf("context access = %+v, want enriched admin access", seen)
	}
}

func TestGuard_RoleCheck(t *testing.T) {
	cases := []struct {
		name   string
		roles  []string
		status int
	}{
		{"member", []string{"editor", "admin"}, http.StatusOK},
		{"not member", []string{"editor"}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := Guard{Roles: tc.roles}
			status, _ := runGuard(t, g, &stubResolver{access: adminAccess()}, &Principal{ID: "u-1"})
			if status != tc.status {
				t.Errorf("status = %d, want %d", status, tc.status)
			}
		})
	}
}

func TestGuard_PermissionGroups_OrOfAnds(t *testing.T) {
	g := Guard{PermissionGroups: [][]string{{"a", "b"}, {"c"}}}

	cases := []struct {
		name   string
		perms  []string
		status int
	}{
		{"first group complete", []string{"a", "b"}, http.StatusOK},
		{"second group complete", []string{"c"}, http.StatusOK},
		{"first group partial", []string{"a"}, http.StatusForbidden},
		{"no permissions", nil, http.StatusForbidden},
		{"superset", []string{"a", "b", "c", "d"}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &stubResolver{access: adminAccess(tc.perms...)}
			status, _ := runGuard(t, g, resolver, &Principal{ID: "u-1"})
			if status != tc.status {
				t.Errorf("perms %v: status = %d, want %d", tc.perms, status, tc.status)
			}
		})
	}
}

func TestGuard_RoleAndPermissionsBothRequired(t *testing.T) {
	g := Guard{
		Roles:            []string{"admin"},
		PermissionGroups: [][]string{{"roles:read"}},
	}

	// Right role, missing permission.
	status, _ := runGuard(t, g, &stubResolver{access: adminAccess()}, &Principal{ID: "u-1"})
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}

	// Both satisfied.
	status, _ = runGuard(t, g, &stubResolver{access: adminAccess("roles:read")}, &Principal{ID: "u-1"})
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
}

func TestGuard_ResolverErrorFailsClosed(t *testing.T) {
	// An unexpected store failure must become a deny, not a 500.
	resolver := &stubResolver{err: errors.New("connection refused")}
	status, _ := runGuard(t, Guard{}, resolver, &Principal{ID: "u-1"})
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
}

func TestGuard_DeliberateAuthErrorPassesThrough(t *testing.T) {
	unauthenticated := observability.GuardDecisionsTotal.WithLabelValues("unauthenticated")
	internal := observability.GuardDecisionsTotal.WithLabelValues("error")
	unauthBefore := testutil.ToFloat64(unauthenticated)
	errorBefore := testutil.ToFloat64(internal)

	resolver := &stubResolver{err: ErrNotAuthenticated}
	status, _ := runGuard(t, Guard{}, resolver, &Principal{ID: "u-1"})
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}

	// The decision counter separates deliberate auth denials from
	// internal resolver failures.
	if got := testutil.ToFloat64(unauthenticated) - unauthBefore; got != 1 {
		t.Errorf("unauthenticated decisions += %v, want 1", got)
	}
	if got := testutil.ToFloat64(internal) - errorBefore; got != 0 {
		t.Errorf("error decisions += %v, want 0", got)
	}
}

func TestGuard_LiveLookupIgnoresTokenRole(t *testing.T) {
	// The token claims "admin" but the directory now says "user": the
	// resolved role decides.
	g := Guard{Roles: []string{"admin"}}
	resolver := &stubResolver{access: &Access{Role: Role{ID: "r-2", Name: "user"}}}

	status, _ := runGuard(t, g, resolver, &Principal{ID: "u-1", Role: "admin"})
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403 (resolved role wins)", status)
	}
}
