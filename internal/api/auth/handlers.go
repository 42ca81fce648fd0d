package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/api/apiutil"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/identity"
)

// BootstrapUserID is the synthetic id of the break-glass admin configured
// through the environment. It exists so the first real admin can be
// provisioned before any role rows exist; it never has a profile row.
const BootstrapUserID = "bootstrap-admin"

// Authenticator verifies an email/password pair against the identity
// backend.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (identity.User, error)
}

// BootstrapAdmin is an optional local credential checked only when the
// submitted email matches exactly.
type BootstrapAdmin struct {
	Email        string
	PasswordHash string
}

func (b BootstrapAdmin) configured() bool {
	return b.Email != "" && b.PasswordHash != ""
}

type Handlers struct {
	authenticator Authenticator
	sessions      *SessionManager
	resolver      *authz.Resolver
	bootstrap     BootstrapAdmin
}

func NewHandlers(authenticator Authenticator, sessions *SessionManager, resolver *authz.Resolver, bootstrap BootstrapAdmin) *Handlers {
	return &Handlers{
		authenticator: authenticator,
		sessions:      sessions,
		resolver:      resolver,
		bootstrap:     bootstrap,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success      bool   `json:"success"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	DefaultRoute string `json:"default_route"`
}

// POST /api/v1/auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "missing credentials", "email and password are required")
		return
	}

	user, err := h.authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn().Err(err).Str("email", req.Email).Msg("Login rejected")
		apiutil.WriteError(w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	if err := h.sessions.Issue(r.Context(), w, user.ID, user.Email); err != nil {
		logger.Error().Err(err).Msg("Failed to create session")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create session", "")
		return
	}

	// Sign-in is an auth-state change: resolve the role now so the client
	// can route to the right console. A missing role does not fail login;
	// the route guard denies later with its own diagnostic.
	role := authz.RoleUnknown
	if user.ID == BootstrapUserID {
		role = authz.RoleAdmin
	} else if resolution := h.resolver.Resolve(r.Context(), user.ID); resolution.Resolved {
		role = resolution.Role
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, loginResponse{
		Success:      true,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         role.String(),
		DefaultRoute: authz.DefaultRoute(role),
	})
}

// POST /api/v1/auth/logout
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	h.sessions.Clear(w, r)
	// Sign-out is also an auth-state change.
	h.resolver.Resolve(r.Context(), "")

	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) authenticate(ctx context.Context, email, password string) (identity.User, error) {
	if h.bootstrap.configured() && email == h.bootstrap.Email {
		if VerifyPassword(h.bootstrap.PasswordHash, password) {
			return identity.User{ID: BootstrapUserID, Email: email}, nil
		}
		return identity.User{}, errors.New("bootstrap credential mismatch")
	}

	if h.authenticator == nil {
		return identity.User{}, errors.New("identity backend not configured")
	}
	return h.authenticator.Authenticate(ctx, email, password)
}
