// internal/api/admin/handlers.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/api/apiutil"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/email"
	"github.com/slapshotlabs/rinkside/internal/provision"
	"github.com/slapshotlabs/rinkside/internal/ratelimit"
	"github.com/slapshotlabs/rinkside/internal/store"
)

const listQueryTimeout = 5 * time.Second

// Handlers serves the admin user-management endpoints.
type Handlers struct {
	provisioner *provision.Service
	store       *store.Store
	emailClient email.EmailSender
	limiter     *ratelimit.Limiter
	baseURL     string
	trustProxy  bool
}

func NewHandlers(provisioner *provision.Service, st *store.Store, emailClient email.EmailSender, limiter *ratelimit.Limiter, baseURL string, trustProxy bool) *Handlers {
	return &Handlers{
		provisioner: provisioner,
		store:       st,
		emailClient: emailClient,
		limiter:     limiter,
		baseURL:     baseURL,
		trustProxy:  trustProxy,
	}
}

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Phone       string `json:"phone,omitempty"`
}

type createdUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type createUserResponse struct {
	Success bool        `json:"success"`
	User    createdUser `json:"user"`
}

// HandleCreateUser provisions a new account end to end. POST /api/v1/admin/users
func (h *Handlers) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleCommissioner) {
		return
	}

	ip := ratelimit.GetClientIP(r, h.trustProxy)
	if h.limiter != nil && !h.limiter.Allow(ip) {
		ratelimit.LogRateLimitExceeded("provision", "", ip)
		apiutil.WriteError(w, http.StatusTooManyRequests, "too many requests", "Provisioning rate limit exceeded. Try again shortly.")
		return
	}

	var req createUserRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		logger.Warn().Err(err).Msg("Invalid create user payload")
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.provisioner.Run(r.Context(), provision.Input{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Phone:       req.Phone,
	})
	if err != nil {
		h.writeProvisionError(w, r, err)
		return
	}

	logger.Info().
		Str("user_id", result.UserID).
		Str("email", ratelimit.SanitizeIdentifier(result.Email)).
		Str("role", result.Role).
		Msg("User provisioned")

	h.sendWelcome(r.Context(), result)

	apiutil.WriteJSON(w, http.StatusCreated, createUserResponse{
		Success: true,
		User: createdUser{
			ID:          result.UserID,
			Email:       result.Email,
			DisplayName: result.DisplayName,
			Role:        result.Role,
		},
	})
}

// writeProvisionError translates the saga's structured error into a response.
// The status comes from the error itself so backend rejections such as a
// duplicate email pass through unchanged.
func (h *Handlers) writeProvisionError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var perr *provision.Error
	if !errors.As(err, &perr) {
		logger.Error().Err(err).Msg("Provisioning failed")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to provision user", "")
		return
	}

	event := logger.Warn()
	if perr.Status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("kind", perr.Kind.String()).Msg("Provisioning failed")

	body := apiutil.ErrorBody{
		Error:   perr.Summary,
		Details: perr.Details(),
		Code:    perr.Kind.String(),
	}
	apiutil.WriteJSON(w, perr.Status, body)
}

func (h *Handlers) sendWelcome(ctx context.Context, result provision.Result) {
	if h.emailClient == nil {
		return
	}
	logger := log.Ctx(ctx)
	email.SendWelcomeEmail(ctx, h.emailClient, result.Email, email.WelcomeDetails{
		DisplayName: result.DisplayName,
		Role:        result.Role,
		LandingPath: authz.DefaultRoute(roleOrUnknown(result.Role)),
		BaseURL:     h.baseURL,
	}, logger)
}

func roleOrUnknown(role string) authz.Role {
	parsed, ok := authz.ParseRole(role)
	if !ok {
		return authz.RoleUnknown
	}
	return parsed
}

type userSummary struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
}

// HandleListUsers returns every profile with its assigned role, if any.
// GET /api/v1/admin/users
func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleCommissioner) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), listQueryTimeout)
	defer cancel()

	profiles, err := h.store.ListProfilesWithRoles(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list profiles")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to list users", "")
		return
	}

	users := make([]userSummary, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, userSummary{
			UserID:      p.UserID,
			Email:       p.Email,
			DisplayName: p.DisplayName,
			Role:        p.Role,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}
