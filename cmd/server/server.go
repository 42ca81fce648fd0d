// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/slapshotlabs/rinkside/internal/api"
	"github.com/slapshotlabs/rinkside/internal/api/admin"
	"github.com/slapshotlabs/rinkside/internal/api/auth"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/api/teams"
	"github.com/slapshotlabs/rinkside/internal/config"
	"github.com/slapshotlabs/rinkside/internal/db"
	"github.com/slapshotlabs/rinkside/internal/email"
	"github.com/slapshotlabs/rinkside/internal/identity"
	"github.com/slapshotlabs/rinkside/internal/provision"
	"github.com/slapshotlabs/rinkside/internal/ratelimit"
)

// deps bundles the long-lived services the route handlers share.
type deps struct {
	database    *db.DB
	identity    *identity.Client
	email       email.EmailSender
	sessions    *auth.SessionManager
	resolver    *authz.Resolver
	provisioner *provision.Service
	limiter     *ratelimit.Limiter
}

func newServer(cfg *config.Config, d *deps) *http.Server {
	router := http.NewServeMux()
	registerRoutes(router, cfg, d)

	// Wrap order is inside-out: request id outermost, then recovery so a
	// panic anywhere in auth or below still becomes a 500.
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithAuth(d.sessions, d.resolver),
		api.WithRecovery,
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, d *deps) {
	authHandlers := auth.NewHandlers(d.identity, d.sessions, d.resolver, auth.BootstrapAdmin{
		Email:        cfg.Bootstrap.AdminEmail,
		PasswordHash: cfg.Bootstrap.AdminPasswordHash,
	})
	adminHandlers := admin.NewHandlers(d.provisioner, d.database.Store, d.email, d.limiter, cfg.App.BaseURL, cfg.App.TrustProxy)
	teamHandlers := teams.NewHandlers(d.database.Store)

	// Pages. The consoles are plain placeholders; what matters is the guard
	// in front of them.
	mux.HandleFunc("GET /{$}", servePage("Rinkside", "League schedules, teams, and rosters."))
	mux.HandleFunc("GET /login", servePage("Sign in", "POST your credentials to /api/v1/auth/login."))
	mux.Handle("GET /admin", api.ChainMiddleware(
		http.HandlerFunc(servePage("League administration", "User management console.")),
		api.RequirePage(authz.RoleAdmin, authz.RoleCommissioner),
	))
	mux.Handle("GET /gm", api.ChainMiddleware(
		http.HandlerFunc(servePage("Team management", "Roster console.")),
		api.RequirePage(authz.RoleGM, authz.RoleCommissioner, authz.RoleAdmin),
	))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/login", authHandlers.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandlers.HandleLogout)

	// Admin routes
	mux.HandleFunc("POST /api/v1/admin/users", adminHandlers.HandleCreateUser)
	mux.HandleFunc("GET /api/v1/admin/users", adminHandlers.HandleListUsers)

	// Team and roster routes
	mux.HandleFunc("GET /api/v1/teams", teamHandlers.HandleListTeams)
	mux.HandleFunc("POST /api/v1/teams", teamHandlers.HandleCreateTeam)
	mux.HandleFunc("GET /api/v1/teams/{id}/roster", teamHandlers.HandleRoster)
	mux.HandleFunc("POST /api/v1/teams/{id}/roster", teamHandlers.HandleAddPlayer)
}

func servePage(title, blurb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>\n", title, title, blurb)
	}
}
