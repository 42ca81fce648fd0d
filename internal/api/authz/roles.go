package authz

// Role is the closed set of roles a provisioned account can hold. RoleUnknown
// is the explicit "no assignment resolved" variant; it is never written to the
// database and never grants access.
type Role int

const (
	RoleUnknown Role = iota
	RoleUser
	RoleGM
	RoleCommissioner
	RoleAdmin
)

const (
	roleAdminName        = "admin"
	roleCommissionerName = "commissioner"
	roleGMName           = "gm"
	roleUserName         = "user"
)

// ParseRole maps a stored role value onto the closed enum. Unrecognized values
// report false rather than defaulting to RoleUser, so a mangled row is treated
// as mis-provisioned instead of silently granted member access.
func ParseRole(value string) (Role, bool) {
	switch value {
	case roleAdminName:
		return RoleAdmin, true
	case roleCommissionerName:
		return RoleCommissioner, true
	case roleGMName:
		return RoleGM, true
	case roleUserName:
		return RoleUser, true
	default:
		return RoleUnknown, false
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return roleAdminName
	case RoleCommissioner:
		return roleCommissionerName
	case RoleGM:
		return roleGMName
	case RoleUser:
		return roleUserName
	default:
		return "unknown"
	}
}

// DefaultRoute returns the landing path for a freshly authenticated caller.
// Commissioners share the admin console; anyone without a recognized role
// lands on the public home page.
func DefaultRoute(role Role) string {
	switch role {
	case RoleAdmin, RoleCommissioner:
		return "/admin"
	case RoleGM:
		return "/gm"
	default:
		return "/"
	}
}
