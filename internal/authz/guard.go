package authz

import "errors"

var ErrForbidden = errors.New("forbidden")

type Operation int

const (
	OpRead Operation = iota
	OpModify
	OpDelete
)

// Actor is the authenticated identity a request acts as.
type Actor struct {
	Username string
	Role     Role
}

// Allow decides whether actor may perform op on a resource owned by owner.
// The same rule applies to every owned resource type: admins may do
// anything, public resources are readable by anyone, everything else is
// owner-only.
func Allow(actor Actor, owner string, public bool, op Operation) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if op == OpRead && public {
		return nil
	}
	if actor.Username != "" && actor.Username == owner {
		return nil
	}
	return ErrForbidden
}
