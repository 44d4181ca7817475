package peer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pforte-dev/pforte/pkg/auth"
)

func testAllowlist() *Allowlist {
	return NewAllowlist([]Credential{
		{IP: "10.0.0.1", Token: "tok1"},
		{IP: "10.0.0.2", Token: "tok2"},
	})
}

func TestAllowlist_AuthorizePeer(t *testing.T) {
	a := testAllowlist()

	cases := []struct {
		name   string
		ip     string
		token  string
		wantOK bool
	}{
		{"first pair", "10.0.0.1", "tok1", true},
		{"second pair", "10.0.0.2", "tok2", true},
		{"cross pair", "10.0.0.1", "tok2", false},
		{"cross pair reversed", "10.0.0.2", "tok1", false},
		{"unknown ip", "10.0.0.3", "tok1", false},
		{"unknown token", "10.0.0.1", "nope", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.AuthorizePeer(context.Background(), tc.ip, tc.token)
			if tc.wantOK && err != nil {
				t.Errorf("AuthorizePeer(%s, %s) = %v, want nil", tc.ip, tc.token, err)
			}
			if !tc.wantOK && !errors.Is(err, auth.ErrNotAuthenticated) {
				t.Errorf("AuthorizePeer(%s, %s) = %v, want ErrNotAuthenticated", tc.ip, tc.token, err)
			}
		})
	}
}

func gateRequest(t *testing.T, remoteAddr, authorization string) int {
	t.Helper()

	gate := NewGate(testAllowlist())
	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/internal/v1/verify", nil)
	r.RemoteAddr = remoteAddr
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec.Code
}

func TestGate_AllowsMatchingPair(t *testing.T) {
	if got := gateRequest(t, "10.0.0.1:39000", "Bearer tok1"); got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestGate_DeniesCrossPair(t *testing.T) {
	if got := gateRequest(t, "10.0.0.1:39000", "Bearer tok2"); got != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", got)
	}
}

func TestGate_MissingCredentials(t *testing.T) {
	cases := []struct {
		name          string
		authorization string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gateRequest(t, "10.0.0.1:39000", tc.authorization); got != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", got)
			}
		})
	}
}

func TestGate_UsesConnectionAddressNotHeaders(t *testing.T) {
	gate := NewGate(testAllowlist())
	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// A spoofed X-Forwarded-For must not grant access.
	r := httptest.NewRequest(http.MethodPost, "/internal/v1/verify", nil)
	r.RemoteAddr = "203.0.113.9:1234"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	r.Header.Set("Authorization", "Bearer tok1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 (forwarding header trusted)", rec.Code)
	}
}
