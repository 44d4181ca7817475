package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/auth/cookie"
	"github.com/pforte-dev/pforte/pkg/auth/token"
	"github.com/pforte-dev/pforte/pkg/debug"
	"github.com/pforte-dev/pforte/pkg/directory"
)

// publicRole is the self-registration role of the visitor site. In
// production it may not log in through the dashboard origin.
const publicRole = "user"

// handler carries the collaborators of the auth endpoints.
type handler struct {
	dir             directory.Directory
	codec           *token.Codec
	jar             cookie.Jar
	production      bool
	dashboardDomain string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Principal *auth.Principal `json:"principal"`
	Access    *auth.Access    `json:"access,omitempty"`
}

// handleLogin verifies credentials, applies the production dashboard
// origin rule, and issues the cookie pair.
func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "email and password are required")
		return
	}

	p, err := h.dir.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, ErrorTypeNotAuthenticated, "not authenticated")
			return
		}
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "internal error")
		return
	}

	// Dashboard logins are restricted to staff roles in production; the
	// visitor-site role gets a destination-specific denial.
	if h.production && p.Role == publicRole && h.isDashboardOrigin(r.Header.Get("Origin")) {
		debug.Log("session", "dashboard login denied", "subject", p.ID, "role", p.Role)
		writeError(w, http.StatusForbidden, ErrorTypeAccessDenied, "dashboard login is not permitted for this account")
		return
	}

	access, err := h.codec.Issue(token.Access, *p)
	if err != nil {
		slog.Error("issuing access token", "subject", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "internal error")
		return
	}
	refresh, err := h.codec.Issue(token.Refresh, *p)
	if err != nil {
		slog.Error("issuing refresh token", "subject", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "internal error")
		return
	}

	// The pair is always written together.
	h.jar.WritePair(w, access, refresh)

	slog.Info("login", "subject", p.ID, "role", p.Role)
	writeJSON(w, http.StatusOK, sessionResponse{Principal: p})
}

// handleLogout clears the cookie pair. Tokens have no revocation list;
// they simply age out.
func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.jar.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession returns the authenticated principal from context.
func (h *handler) handleSession(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, ErrorTypeNotAuthenticated, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Principal: p,
		Access:    auth.AccessFromContext(r.Context()),
	})
}

// handleRoles lists role descriptors. Guarded by the admin role.
func (h *handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.dir.Roles(r.Context())
	if err != nil {
		slog.Error("listing roles", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]auth.Role{"roles": roles})
}

type verifyRequest struct {
	Token string `json:"token"`
	Kind  string `json:"kind"` // "access" (default) or "refresh"
}

type verifyResponse struct {
	Valid     bool            `json:"valid"`
	Principal *auth.Principal `json:"principal,omitempty"`
}

// handleVerify introspects a token for a trusted sibling service. The
// route sits behind the peer gate, not the session gate.
func (h *handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "malformed request body")
		return
	}

	kind := token.Access
	switch req.Kind {
	case "", "access":
	case "refresh":
		kind = token.Refresh
	default:
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "kind must be \"access\" or \"refresh\"")
		return
	}

	p, err := h.codec.Verify(kind, req.Token)
	if err != nil {
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, Principal: p})
}

// handleHealthz is the liveness probe.
func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleReadyz reports directory reachability.
func (h *handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, ErrorTypeServerError, "directory unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// isDashboardOrigin reports whether the Origin header names the
// dashboard domain.
func (h *handler) isDashboardOrigin(origin string) bool {
	if origin == "" || h.dashboardDomain == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return strings.EqualFold(host, h.dashboardDomain)
}
