package authz

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoRole marks an authenticated account with no role assignment. Kept
	// distinct from ErrForbidden so operators can spot mis-provisioned
	// accounts instead of chasing phantom permission problems.
	ErrNoRole    = errors.New("no role assigned")
	ErrForbidden = errors.New("insufficient permissions")
)

// AuthUser is the resolved state of the current caller: who they are and
// which role, if any, a lookup produced for them. RoleResolved distinguishes
// "lookup returned no row" from "role is user".
type AuthUser struct {
	ID           string
	Email        string
	Role         Role
	RoleResolved bool
}

type userContextKey struct{}

// ContextWithUser stores the resolved caller in ctx. Handlers receive identity
// and role state through explicit context rather than ambient globals.
func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// RequireRole decides whether the caller in ctx may proceed. An empty allowed
// list admits any authenticated caller that holds some role. The three error
// values map to the three distinct denial diagnostics: not signed in, signed
// in but mis-provisioned, and signed in with the wrong role.
func RequireRole(ctx context.Context, allowed ...Role) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}

	if !user.RoleResolved || user.Role == RoleUnknown {
		return ErrNoRole
	}

	if len(allowed) == 0 {
		return nil
	}

	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}

	return ErrForbidden
}
