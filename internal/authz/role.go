package authz

// Role is the closed, ordered set of account roles. The order matters:
// a higher role never has fewer rights than a lower one.
type Role int

const (
	RoleGuest Role = iota
	RoleMember
	RoleTrainer
	RoleAdmin
)

const (
	roleGuest   = "guest"
	roleMember  = "member"
	roleTrainer = "trainer"
	roleAdmin   = "admin"
)

// ParseRole maps a stored role string onto the Role set. Unknown values
// fall back to guest rather than failing open.
func ParseRole(s string) Role {
	switch s {
	case roleMember:
		return RoleMember
	case roleTrainer:
		return RoleTrainer
	case roleAdmin:
		return RoleAdmin
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return roleMember
	case RoleTrainer:
		return roleTrainer
	case RoleAdmin:
		return roleAdmin
	default:
		return roleGuest
	}
}

func (r Role) AtLeast(min Role) bool {
	return r >= min
}
