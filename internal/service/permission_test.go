package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/domain"
)

func TestIsMemberAndRoleOf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	outsider := env.createUser(t, "outsider@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	ok, err := env.permissions.IsMember(ctx, space.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.permissions.IsMember(ctx, space.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	role, found, err := env.permissions.RoleOf(ctx, space.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.RoleOwner, role)

	_, found, err = env.permissions.RoleOf(ctx, space.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIsOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	admin := env.createUser(t, "admin@example.com")
	member := env.createUser(t, "member@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, admin.ID, domain.RoleAdmin)
	require.NoError(t, err)
	_, err = env.spaces.AddMember(ctx, owner.ID, space.ID, member.ID, domain.RoleMember)
	require.NoError(t, err)

	for userID, want := range map[string]bool{
		owner.ID:  true,
		admin.ID:  true,
		member.ID: false,
	} {
		got, err := env.permissions.IsOwnerOrAdmin(ctx, space.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCanDeleteChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	member := env.createUser(t, "member@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, member.ID, domain.RoleMember)
	require.NoError(t, err)

	text, err := env.channels.CreateChannel(ctx, owner.ID, space.ID, CreateChannelRequest{
		Name: "general", Type: domain.ChannelText,
	})
	require.NoError(t, err)

	cloud, err := env.store.GetCloudChannel(ctx, space.ID)
	require.NoError(t, err)

	// Owner may delete a text channel but never the cloud channel.
	ok, err := env.permissions.CanDeleteChannel(ctx, owner.ID, text)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.permissions.CanDeleteChannel(ctx, owner.ID, cloud)
	require.NoError(t, err)
	assert.False(t, ok)

	// A plain member may not delete anything.
	ok, err = env.permissions.CanDeleteChannel(ctx, member.ID, text)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	admin := env.createUser(t, "admin@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	adminMembership, err := env.spaces.AddMember(ctx, owner.ID, space.ID, admin.ID, domain.RoleAdmin)
	require.NoError(t, err)

	ownerMembership, err := env.store.GetMembershipByUser(ctx, space.ID, owner.ID)
	require.NoError(t, err)

	ok, err := env.permissions.CanRemoveMember(ctx, owner.ID, adminMembership)
	require.NoError(t, err)
	assert.True(t, ok)

	// Nobody may remove the owner membership.
	ok, err = env.permissions.CanRemoveMember(ctx, admin.ID, ownerMembership)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.permissions.CanRemoveMember(ctx, owner.ID, ownerMembership)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanShareVault(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")

	vault, err := env.vaults.CreateVault(context.Background(), owner.ID, CreateVaultRequest{Name: "My Vault"})
	require.NoError(t, err)

	assert.True(t, env.permissions.CanShareVault(vault, owner.ID))
	assert.False(t, env.permissions.CanShareVault(vault, other.ID))
}

func TestVaultPerms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	grantee := env.createUser(t, "grantee@example.com")
	linked := env.createUser(t, "linked@example.com")
	outsider := env.createUser(t, "outsider@example.com")

	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "My Vault"})
	require.NoError(t, err)

	// Owner holds read and write implicitly.
	perms, err := env.permissions.VaultPerms(ctx, vault, owner.ID)
	require.NoError(t, err)
	assert.True(t, perms.Has(domain.PermRead))
	assert.True(t, perms.Has(domain.PermWrite))

	// Direct share grants the share's perms.
	_, err = env.vaults.ShareVaultWithUser(ctx, owner.ID, vault.ID, grantee.ID, []string{"read"})
	require.NoError(t, err)

	perms, err = env.permissions.VaultPerms(ctx, vault, grantee.ID)
	require.NoError(t, err)
	assert.True(t, perms.Has(domain.PermRead))
	assert.False(t, perms.Has(domain.PermWrite))

	// A link grants perms to members of the linked space.
	space := env.createSpace(t, owner.ID, "Team A")
	_, err = env.spaces.AddMember(ctx, owner.ID, space.ID, linked.ID, domain.RoleMember)
	require.NoError(t, err)
	_, err = env.vaults.LinkVaultToSpace(ctx, owner.ID, vault.ID, space.ID, []string{"read", "write"})
	require.NoError(t, err)

	perms, err = env.permissions.VaultPerms(ctx, vault, linked.ID)
	require.NoError(t, err)
	assert.True(t, perms.Has(domain.PermRead))
	assert.True(t, perms.Has(domain.PermWrite))

	// No relationship, no perms.
	perms, err = env.permissions.VaultPerms(ctx, vault, outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}
