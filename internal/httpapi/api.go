// Package httpapi exposes the HTTP surface: session transport, the
// authentication gate and the layered authorization middleware, plus the
// thin handlers consuming them.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"swasthya.org/internal/audit"
	"swasthya.org/internal/auth"
	"swasthya.org/internal/hierarchy"
	"swasthya.org/internal/obs"
	"swasthya.org/internal/report"
)

// Options bundles the collaborators the API needs.
type Options struct {
	Auth         *auth.Service
	Hierarchy    *hierarchy.Service
	Reports      *report.Service
	DB           *sql.DB // optional, used by the readiness probe
	Log          zerolog.Logger
	Version      string
	CookieSecure bool
	RateLimitRPS int
	RateBurst    int
	MaxBodyBytes int64
}

// API is the HTTP layer.
type API struct {
	router  chi.Router
	auth    *auth.Service
	hier    *hierarchy.Service
	reports *report.Service
	db      *sql.DB
	log     zerolog.Logger
	audit   *audit.Log
	session sessionTransport
	version string
}

// New wires the router: ops endpoints and login stay public, everything
// else passes through the authentication gate first.
func New(opts Options) *API {
	a := &API{
		auth:    opts.Auth,
		hier:    opts.Hierarchy,
		reports: opts.Reports,
		db:      opts.DB,
		log:     opts.Log,
		audit:   audit.New(opts.Log),
		session: sessionTransport{secure: opts.CookieSecure},
		version: opts.Version,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(opts.Log))
	r.Use(SecurityHeaders)
	if opts.MaxBodyBytes > 0 {
		r.Use(MaxBodyBytes(opts.MaxBodyBytes))
	}
	if opts.RateLimitRPS > 0 {
		r.Use(RateLimit(opts.RateLimitRPS, opts.RateBurst))
	}

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Post("/v1/auth/register", a.handleRegister)
	r.Post("/v1/auth/login", a.handleLogin)
	r.Post("/v1/auth/refresh", a.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Post("/v1/auth/logout", a.handleLogout)
		r.Get("/v1/auth/me", a.handleMe)

		// Empty allow-set: only the admin bypass admits.
		r.With(RequireRoles()).
			Put("/v1/users/{userID}/status", a.handleSetUserStatus)

		r.Route("/v1/districts/{districtID}", func(r chi.Router) {
			r.Get("/", a.handleGetDistrict)
			r.With(a.requireOfficer(hierarchy.Descriptor{Entity: hierarchy.EntityDistrict}, "districtID")).
				Put("/", a.handleUpdateDistrict)
		})

		r.Route("/v1/blocks/{blockID}", func(r chi.Router) {
			r.Get("/", a.handleGetBlock)
			r.With(a.requireOfficer(hierarchy.Descriptor{Entity: hierarchy.EntityBlock}, "blockID")).
				Put("/", a.handleUpdateBlock)
			// Reassigning a block's officer is district-level authority:
			// block -> parent district -> district officer.
			r.With(a.requireOfficer(hierarchy.Descriptor{Entity: hierarchy.EntityBlock, ParentAuthority: true}, "blockID")).
				Put("/officer", a.handleSetBlockOfficer)
		})

		r.Route("/v1/reports", func(r chi.Router) {
			r.With(RequireRoles(auth.RoleASHAWorker, auth.RoleHealthOfficial)).
				Get("/", a.handleListReports)
			r.Post("/", a.handleCreateReport)

			r.Route("/{reportID}", func(r chi.Router) {
				r.Use(a.loadReport)
				r.Use(a.requireResourceOwner(auth.RoleHealthOfficial))
				r.Get("/", a.handleGetReport)
				r.Put("/", a.handleUpdateReport)
				r.Delete("/", a.handleDeleteReport)
			})
		})
	})

	a.router = r
	return a
}

// Handler returns the metrics-instrumented root handler.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "swasthya-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.readyCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) readyCheck(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.PingContext(ctx)
}
