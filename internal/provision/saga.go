// Package provision implements admin-driven account creation as a sequential
// best-effort saga: identity, then profile row, then role row, with cleanup
// in reverse order if a later step fails. There is no transaction across the
// three writes; ordered creation plus reverse-order compensating deletes is
// the only discipline.
package provision

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/identity"
	"github.com/slapshotlabs/rinkside/internal/store"
)

const defaultStepTimeout = 10 * time.Second

// IdentityAdmin is the slice of the identity backend's admin API the saga
// needs: the credential self-check, account creation, and the compensating
// delete.
type IdentityAdmin interface {
	CheckCredentials(ctx context.Context) error
	CreateUser(ctx context.Context, email, password string) (string, error)
	DeleteUser(ctx context.Context, userID string) error
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, params store.CreateProfileParams) error
	DeleteProfile(ctx context.Context, userID string) error
}

// RoleStore is only ever written forward: role assignment is the final step,
// so a failed saga never has a role row to undo.
type RoleStore interface {
	AssignRole(ctx context.Context, userID, role string) error
}

// Input is one admin-issued "create user" request. Email, Password,
// DisplayName, and Role are required; Phone is optional and validated when
// present.
type Input struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
	Phone       string
}

// Result describes a fully provisioned account.
type Result struct {
	UserID      string
	Email       string
	DisplayName string
	Role        string
}

type Service struct {
	identity    IdentityAdmin
	profiles    ProfileStore
	roles       RoleStore
	stepTimeout time.Duration
}

type Option func(*Service)

// WithStepTimeout overrides the per-step timeout. Expiry is treated as a step
// failure and triggers the same compensation path.
func WithStepTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.stepTimeout = timeout
		}
	}
}

func NewService(identityAdmin IdentityAdmin, profiles ProfileStore, roles RoleStore, opts ...Option) *Service {
	service := &Service{
		identity:    identityAdmin,
		profiles:    profiles,
		roles:       roles,
		stepTimeout: defaultStepTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Run executes the saga. On success the system holds a consistent
// identity+profile+role triple; on failure every step that completed is
// compensated in reverse order, best effort. Run is not idempotent: retrying
// a failed request re-attempts identity creation, and the backend's
// duplicate-email rejection is what stops a second account.
func (s *Service) Run(ctx context.Context, input Input) (Result, error) {
	if err := validateInput(&input); err != nil {
		return Result{}, err
	}
	if s.identity == nil || s.profiles == nil || s.roles == nil {
		return Result{}, newError(KindConfig, "provisioning backend not configured",
			http.StatusInternalServerError, errors.New("identity backend or store missing"))
	}

	logger := log.Ctx(ctx).With().Str("email", input.Email).Str("role", input.Role).Logger()

	// Step 1: prove the elevated credential works with a harmless read
	// before mutating anything.
	if err := s.step(ctx, func(stepCtx context.Context) error {
		return s.identity.CheckCredentials(stepCtx)
	}); err != nil {
		logger.Error().Err(err).Str("step", "credential-check").Msg("Provisioning aborted")
		return Result{}, newError(KindCredential, "identity backend credential rejected", http.StatusForbidden, err)
	}

	// Step 2: create the identity. A duplicate email surfaces here with the
	// backend's own status. Identity creation is itself more than one backend
	// write, so a failure can still leave an account behind; any id the
	// backend handed back gets the compensating delete.
	var userID string
	if err := s.step(ctx, func(stepCtx context.Context) error {
		id, err := s.identity.CreateUser(stepCtx, input.Email, input.Password)
		userID = id
		return err
	}); err != nil {
		if userID != "" {
			logger.Error().Err(err).Str("step", "create-identity").Msg("Provisioning failed, compensating")
			s.compensate(ctx, logger, []compensation{
				{"delete-identity", func(c context.Context) error { return s.identity.DeleteUser(c, userID) }},
			})
		} else {
			logger.Error().Err(err).Str("step", "create-identity").Msg("Provisioning failed")
		}
		return Result{}, newError(KindUpstreamCreate, "failed to create identity", identity.StatusCode(err), err)
	}

	logger = logger.With().Str("user_id", userID).Logger()
	logger.Info().Str("step", "create-identity").Msg("Identity created")

	// Step 3: profile row. On failure, the just-created identity is deleted.
	if err := s.step(ctx, func(stepCtx context.Context) error {
		return s.profiles.CreateProfile(stepCtx, store.CreateProfileParams{
			UserID:      userID,
			Email:       input.Email,
			DisplayName: input.DisplayName,
			Phone:       input.Phone,
		})
	}); err != nil {
		logger.Error().Err(err).Str("step", "create-profile").Msg("Provisioning failed, compensating")
		s.compensate(ctx, logger, []compensation{
			{"delete-identity", func(c context.Context) error { return s.identity.DeleteUser(c, userID) }},
		})
		return Result{}, newError(KindUpstreamWrite, "failed to create profile", http.StatusInternalServerError, err)
	}

	logger.Info().Str("step", "create-profile").Msg("Profile created")

	// Step 4: role row. On failure, cleanup runs in reverse creation order:
	// profile first, then identity.
	if err := s.step(ctx, func(stepCtx context.Context) error {
		return s.roles.AssignRole(stepCtx, userID, input.Role)
	}); err != nil {
		logger.Error().Err(err).Str("step", "assign-role").Msg("Provisioning failed, compensating")
		s.compensate(ctx, logger, []compensation{
			{"delete-profile", func(c context.Context) error { return s.profiles.DeleteProfile(c, userID) }},
			{"delete-identity", func(c context.Context) error { return s.identity.DeleteUser(c, userID) }},
		})
		return Result{}, newError(KindUpstreamWrite, "failed to assign role", http.StatusInternalServerError, err)
	}

	logger.Info().Str("step", "assign-role").Msg("Provisioning complete")

	return Result{
		UserID:      userID,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Role:        input.Role,
	}, nil
}

// step runs one remote operation under the per-step timeout.
func (s *Service) step(ctx context.Context, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return fn(stepCtx)
}

type compensation struct {
	name string
	fn   func(context.Context) error
}

// compensate executes cleanup actions independently: a failure in one never
// blocks the next, and failures are logged, never surfaced to the caller in
// place of the original error. Cleanup is detached from the request context
// so a cancelled caller cannot strand partial state mid-compensation.
func (s *Service) compensate(ctx context.Context, logger zerolog.Logger, actions []compensation) {
	base := context.WithoutCancel(ctx)
	for _, action := range actions {
		stepCtx, cancel := context.WithTimeout(base, s.stepTimeout)
		err := action.fn(stepCtx)
		cancel()
		if err != nil {
			logger.Error().Err(err).Str("compensation", action.name).Msg("Compensation step failed")
			continue
		}
		logger.Info().Str("compensation", action.name).Msg("Compensation step completed")
	}
}

// validateInput checks the request before any remote call and normalizes the
// optional phone to E.164. The requested role must be one an admin may hand
// out at this boundary: admin, gm, or user.
func validateInput(input *Input) error {
	input.Email = strings.TrimSpace(input.Email)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Role = strings.TrimSpace(input.Role)
	input.Phone = strings.TrimSpace(input.Phone)

	var missing []string
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if input.DisplayName == "" {
		missing = append(missing, "display_name")
	}
	if input.Role == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return newError(KindMalformed, "missing required fields",
			http.StatusBadRequest, errors.New(strings.Join(missing, ", ")))
	}

	role, ok := authz.ParseRole(input.Role)
	if !ok || role == authz.RoleCommissioner {
		return newError(KindMalformed, "invalid role",
			http.StatusBadRequest, errors.New("role must be one of admin, gm, user"))
	}

	if input.Phone != "" {
		parsed, err := phonenumbers.Parse(input.Phone, "US")
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			return newError(KindMalformed, "invalid phone number",
				http.StatusBadRequest, errors.New("phone must be a valid number"))
		}
		input.Phone = phonenumbers.Format(parsed, phonenumbers.E164)
	}

	return nil
}
