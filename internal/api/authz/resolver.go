package authz

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// RoleLookup fetches the stored role assignment for a user. Implementations
// return ErrRoleNotFound when the account has no assignment.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

// ErrRoleNotFound is returned by RoleLookup implementations when no role row
// exists for the user.
var ErrRoleNotFound = errors.New("role assignment not found")

// Resolver turns identity events into role state. Every auth transition
// (sign-in, sign-out, token refresh) triggers a fresh lookup; overlapping
// lookups are sequenced with a monotonic token so a slow, stale resolution
// can never overwrite a fresher one. Lookup failures are logged and collapse
// into "no role": ambiguous role state must never grant access.
type Resolver struct {
	lookup RoleLookup

	mu      sync.Mutex
	seq     uint64
	current Resolution
}

// Resolution is the outcome of the most recent role lookup to win the
// sequence race.
type Resolution struct {
	UserID   string
	Role     Role
	Resolved bool
}

func NewResolver(lookup RoleLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve performs a role lookup for userID and installs the result unless a
// later-started resolution has already completed. It returns the resolution
// that was computed for this call, whether or not it was installed. An empty
// userID records the unauthenticated state.
func (r *Resolver) Resolve(ctx context.Context, userID string) Resolution {
	r.mu.Lock()
	r.seq++
	token := r.seq
	r.mu.Unlock()

	resolution := Resolution{UserID: userID}
	if userID != "" {
		value, err := r.lookup.GetRole(ctx, userID)
		switch {
		case errors.Is(err, ErrRoleNotFound):
			// Mis-provisioned account; leave Resolved false.
		case err != nil:
			log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Role lookup failed, treating as no role")
		default:
			role, ok := ParseRole(value)
			if !ok {
				log.Ctx(ctx).Warn().Str("user_id", userID).Str("role", value).Msg("Unrecognized role value, treating as no role")
				break
			}
			resolution.Role = role
			resolution.Resolved = true
		}
	}

	r.install(ctx, token, resolution)
	return resolution
}

func (r *Resolver) install(ctx context.Context, token uint64, resolution Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token < r.seq {
		log.Ctx(ctx).Debug().
			Uint64("token", token).
			Uint64("latest", r.seq).
			Str("user_id", resolution.UserID).
			Msg("Discarding stale role resolution")
		return
	}
	r.current = resolution
}

// Current returns the resolution installed by the most recent completed,
// non-stale lookup.
func (r *Resolver) Current() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
