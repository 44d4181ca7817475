// Package server wires the pforte gates into an HTTP router.
//
// Control flow per request: route classifier check, then the session
// gate on protected routes, then any per-route guard, then the handler.
// Internal server-to-server routes use the peer gate instead and never
// touch the session gate.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/auth/cookie"
	"github.com/pforte-dev/pforte/pkg/auth/peer"
	"github.com/pforte-dev/pforte/pkg/auth/session"
	"github.com/pforte-dev/pforte/pkg/auth/token"
	"github.com/pforte-dev/pforte/pkg/config"
	"github.com/pforte-dev/pforte/pkg/directory"
	"github.com/pforte-dev/pforte/pkg/observability"
)

// New builds the router from configuration and collaborators.
func New(cfg *config.Config, dir directory.Directory, codec *token.Codec, jar cookie.Jar) http.Handler {
	h := &handler{
		dir:             dir,
		codec:           codec,
		jar:             jar,
		production:      cfg.Server.Production,
		dashboardDomain: cfg.Server.DashboardDomain,
	}

	// The auth group is protected by default; login is the single
	// route-level override.
	classifier := auth.NewClassifier()
	classifier.MarkGroup("/v1/auth", false)
	classifier.MarkRoute("/v1/auth/login", true)

	sessionGate := session.New(codec, jar, classifier)
	peerGate := peer.NewGate(dir)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(observability.MetricsMiddleware)
	r.Use(cors.Handler(corsOptions(cfg)))

	// Probes and metrics sit outside every gate.
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyz)
	if cfg.Observability.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	// Session-gated surface.
	r.Group(func(r chi.Router) {
		r.Use(sessionGate.Middleware)

		r.Post("/v1/auth/login", h.handleLogin)
		r.Post("/v1/auth/logout", h.handleLogout)
		r.Get("/v1/auth/session", h.handleSession)

		rolesGuard := auth.Guard{
			Roles:            []string{"admin"},
			PermissionGroups: [][]string{{directory.Permission(directory.SubjectRoles, directory.ActionRead)}},
		}
		r.With(rolesGuard.Middleware(dir)).Get("/v1/roles", h.handleRoles)
	})

	// Peer-gated internal surface.
	r.Group(func(r chi.Router) {
		r.Use(peerGate.Middleware)

		r.Post("/internal/v1/verify", h.handleVerify)
	})

	return r
}

// corsOptions allows the two public-facing domains in production and
// any origin in development. Credentials are always allowed since the
// session rides on cookies.
func corsOptions(cfg *config.Config) cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if cfg.Server.Production {
		opts.AllowedOrigins = []string{
			"https://" + cfg.Server.DashboardDomain,
			"https://" + cfg.Server.PublicDomain,
		}
	} else {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}
	return opts
}
