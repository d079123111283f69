package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleMember, ParseRole("member"))
	assert.Equal(t, RoleTrainer, ParseRole("trainer"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleGuest, ParseRole("guest"))
	assert.Equal(t, RoleGuest, ParseRole("something-else"))
	assert.Equal(t, RoleGuest, ParseRole(""))
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleTrainer))
	assert.True(t, RoleTrainer.AtLeast(RoleMember))
	assert.True(t, RoleMember.AtLeast(RoleGuest))
	assert.False(t, RoleGuest.AtLeast(RoleMember))
}

func TestAllow(t *testing.T) {
	owner := Actor{Username: "alice", Role: RoleMember}
	stranger := Actor{Username: "bob", Role: RoleMember}
	admin := Actor{Username: "root", Role: RoleAdmin}
	guest := Actor{Role: RoleGuest}

	ops := []Operation{OpRead, OpModify, OpDelete}

	// owner can do everything on own resources
	for _, op := range ops {
		assert.NoError(t, Allow(owner, "alice", false, op))
		assert.NoError(t, Allow(owner, "alice", true, op))
	}

	// admin can do everything on anyone's
	for _, op := range ops {
		assert.NoError(t, Allow(admin, "alice", false, op))
	}

	// non-owner gets read on public, nothing else
	assert.NoError(t, Allow(stranger, "alice", true, OpRead))
	assert.ErrorIs(t, Allow(stranger, "alice", true, OpModify), ErrForbidden)
	assert.ErrorIs(t, Allow(stranger, "alice", true, OpDelete), ErrForbidden)
	for _, op := range ops {
		assert.ErrorIs(t, Allow(stranger, "alice", false, op), ErrForbidden)
	}

	// guests read public resources only
	assert.NoError(t, Allow(guest, "alice", true, OpRead))
	assert.ErrorIs(t, Allow(guest, "alice", false, OpRead), ErrForbidden)
	assert.ErrorIs(t, Allow(guest, "alice", true, OpModify), ErrForbidden)

	// an empty username never matches an empty owner
	assert.ErrorIs(t, Allow(Actor{Role: RoleMember}, "", false, OpModify), ErrForbidden)
}
