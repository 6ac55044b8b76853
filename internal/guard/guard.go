// Package guard decides whether a request may reach role-gated content.
// The decision table is deliberately conservative in one direction only:
// a missing or unresolved role never denies access, because denial must
// wait until the role is actually known.
package guard

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOpsAdmin Role = "ops_admin"
	RoleTutor    Role = "tutor"
	RoleStudent  Role = "student"
)

// ParseRole maps a stored role string onto the closed enum. Adding a role
// means extending this switch; anything else reports unknown.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOpsAdmin:
		return RoleOpsAdmin, true
	case RoleTutor:
		return RoleTutor, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

type State int

const (
	// Pending means the session or profile is still resolving; render a
	// placeholder, never redirect.
	Pending State = iota
	Allowed
	Denied
)

const (
	LoginPath = "/auth"
	HomePath  = "/"
)

type Input struct {
	RequireAuth bool
	Allow       []Role

	Resolving     bool
	Authenticated bool
	// Role is nil while the profile has not resolved or carries no
	// recognized role.
	Role *Role

	// RequestedPath is preserved on an unauthenticated denial so the
	// client can bounce back after login.
	RequestedPath string
}

type Decision struct {
	State      State
	RedirectTo string
	From       string
}

func Evaluate(in Input) Decision {
	if in.Resolving {
		return Decision{State: Pending}
	}
	if in.RequireAuth && !in.Authenticated {
		return Decision{State: Denied, RedirectTo: LoginPath, From: in.RequestedPath}
	}
	if len(in.Allow) > 0 && in.Role != nil && !roleAllowed(*in.Role, in.Allow) {
		return Decision{State: Denied, RedirectTo: HomePath}
	}
	return Decision{State: Allowed}
}

func roleAllowed(role Role, allow []Role) bool {
	for _, candidate := range allow {
		if candidate == role {
			return true
		}
	}
	return false
}
