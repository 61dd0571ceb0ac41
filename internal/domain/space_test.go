package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		input string
		want  SpaceRole
		ok    bool
	}{
		{"owner", RoleOwner, true},
		{"admin", RoleAdmin, true},
		{"member", RoleMember, true},
		// Legacy rows carry roles in upper case; fold them.
		{"OWNER", RoleOwner, true},
		{"ADMIN", RoleAdmin, true},
		{"MEMBER", RoleMember, true},
		{"Admin", RoleAdmin, true},
		{"  member ", RoleMember, true},
		{"moderator", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeRole(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpaceRole_IsOwnerOrAdmin(t *testing.T) {
	assert.True(t, RoleOwner.IsOwnerOrAdmin())
	assert.True(t, RoleAdmin.IsOwnerOrAdmin())
	assert.False(t, RoleMember.IsOwnerOrAdmin())
}

func TestMembership_IsOwner(t *testing.T) {
	assert.True(t, (&Membership{Role: RoleOwner}).IsOwner())
	assert.False(t, (&Membership{Role: RoleAdmin}).IsOwner())
	assert.False(t, (&Membership{Role: RoleMember}).IsOwner())
}
