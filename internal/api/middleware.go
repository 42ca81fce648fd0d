// internal/api/middleware.go
package api

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/api/auth"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
)

type Middleware func(http.Handler) http.Handler

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("request_id", r.Context().Value("request_id").(string)).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				// Log the full stack trace
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		// Create a logger with the request ID
		logger := log.With().Str("request_id", requestID).Logger()

		// Add both the request ID and logger to context
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithAuth loads the session cookie and resolves the caller's role before the
// request reaches a handler. The role is re-resolved on every request; a
// failed lookup leaves the caller roleless rather than guessing.
func WithAuth(sessions *auth.SessionManager, resolver *authz.Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionUser, err := sessions.UserFromRequest(r)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load auth session")
				next.ServeHTTP(w, r)
				return
			}

			if sessionUser != nil {
				user := &authz.AuthUser{
					ID:    sessionUser.ID,
					Email: sessionUser.Email,
				}
				if sessionUser.ID == auth.BootstrapUserID {
					user.Role = authz.RoleAdmin
					user.RoleResolved = true
				} else {
					resolution := resolver.Resolve(r.Context(), sessionUser.ID)
					user.Role = resolution.Role
					user.RoleResolved = resolution.Resolved
				}
				r = r.WithContext(authz.ContextWithUser(r.Context(), user))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePage guards a browser-facing route with a role allow-list.
// Unauthenticated visitors land on the sign-in screen; authenticated denials
// get distinct diagnostics instead of a silent redirect.
func RequirePage(allowed ...authz.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.Ctx(r.Context())
			if err := authz.RequireRole(r.Context(), allowed...); err != nil {
				switch {
				case errors.Is(err, authz.ErrUnauthenticated):
					http.Redirect(w, r, "/login", http.StatusFound)
				case errors.Is(err, authz.ErrNoRole):
					logger.Warn().Str("path", r.URL.Path).Msg("Page access denied: no role assigned")
					http.Error(w, "No role assigned to this account. Contact an administrator.", http.StatusForbidden)
				case errors.Is(err, authz.ErrForbidden):
					logger.Warn().Str("path", r.URL.Path).Msg("Page access denied: insufficient permissions")
					http.Error(w, "Insufficient permissions to view this page.", http.StatusForbidden)
				default:
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("Page access denied: error")
					http.Error(w, "Failed to authorize request", http.StatusInternalServerError)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
