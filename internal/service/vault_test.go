package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/havenapp/haven-server/internal/errors"
)

func TestCreateAndListVaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")

	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, vault.OwnerID)

	vaults, err := env.vaults.ListVaults(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, vaults, 1)
}

func TestLinkVaultToSpace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	space := env.createSpace(t, owner.ID, "Team A")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	link, err := env.vaults.LinkVaultToSpace(ctx, owner.ID, vault.ID, space.ID, []string{"read"})
	require.NoError(t, err)
	assert.Equal(t, space.ID, link.SpaceID)

	// Duplicate link is a conflict.
	_, err = env.vaults.LinkVaultToSpace(ctx, owner.ID, vault.ID, space.ID, []string{"read"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestLinkVaultOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	space := env.createSpace(t, other.ID, "Their Space")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	_, err = env.vaults.LinkVaultToSpace(ctx, other.ID, vault.ID, space.ID, []string{"read"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLinkVaultRequiresSpaceMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	space := env.createSpace(t, other.ID, "Their Space")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	// The vault owner is not a member of the target space.
	_, err = env.vaults.LinkVaultToSpace(ctx, owner.ID, vault.ID, space.ID, []string{"read"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestShareVault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	grantee := env.createUser(t, "grantee@example.com")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	// Self-share is rejected.
	_, err = env.vaults.ShareVaultWithUser(ctx, owner.ID, vault.ID, owner.ID, []string{"read"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	share, err := env.vaults.ShareVaultWithUser(ctx, owner.ID, vault.ID, grantee.ID, []string{"read", "write"})
	require.NoError(t, err)
	assert.Equal(t, grantee.ID, share.GranteeID)

	// Duplicate share is a conflict.
	_, err = env.vaults.ShareVaultWithUser(ctx, owner.ID, vault.ID, grantee.ID, []string{"read"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// Grantee can now read the vault.
	_, err = env.vaults.GetVault(ctx, grantee.ID, vault.ID)
	require.NoError(t, err)

	// Revoke removes access.
	require.NoError(t, env.vaults.RevokeShare(ctx, owner.ID, vault.ID, grantee.ID))
	_, err = env.vaults.GetVault(ctx, grantee.ID, vault.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestShareVaultBadPerms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	grantee := env.createUser(t, "grantee@example.com")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	_, err = env.vaults.ShareVaultWithUser(ctx, owner.ID, vault.ID, grantee.ID, []string{"admin"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestListVaultAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	grantee := env.createUser(t, "grantee@example.com")
	space := env.createSpace(t, owner.ID, "Team A")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	_, err = env.vaults.LinkVaultToSpace(ctx, owner.ID, vault.ID, space.ID, []string{"read"})
	require.NoError(t, err)
	_, err = env.vaults.ShareVaultWithUser(ctx, owner.ID, vault.ID, grantee.ID, []string{"read"})
	require.NoError(t, err)

	access, err := env.vaults.ListVaultAccess(ctx, owner.ID, vault.ID)
	require.NoError(t, err)
	assert.Len(t, access.Links, 1)
	assert.Len(t, access.Shares, 1)

	// Only the owner may inspect access.
	_, err = env.vaults.ListVaultAccess(ctx, grantee.ID, vault.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestDeleteVaultRemovesFilesAndBlobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	file, err := env.files.UploadVaultFile(ctx, owner.ID, vault.ID, UploadRequest{
		Name: "notes.txt", MimeType: "text/plain", Data: []byte("hello"),
	})
	require.NoError(t, err)
	require.True(t, env.blobs.Exists(file.Path))

	require.NoError(t, env.vaults.DeleteVault(ctx, owner.ID, vault.ID))

	assert.False(t, env.blobs.Exists(file.Path))
	_, err = env.vaults.GetVault(ctx, owner.ID, vault.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteVaultOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	vault, err := env.vaults.CreateVault(ctx, owner.ID, CreateVaultRequest{Name: "Documents"})
	require.NoError(t, err)

	err = env.vaults.DeleteVault(ctx, other.ID, vault.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
