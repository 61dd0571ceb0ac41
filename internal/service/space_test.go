package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
)

func TestCreateSpace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")

	space, err := env.spaces.CreateSpace(ctx, owner.ID, CreateSpaceRequest{Name: "Team A"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, space.OwnerID)

	// Exactly one membership: the creator with the owner role.
	members, err := env.spaces.ListMembers(ctx, owner.ID, space.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, domain.RoleOwner, members[0].Role)
	assert.Equal(t, owner.ID, members[0].UserID)

	// Exactly one channel: the cloud channel.
	channels, err := env.channels.ListChannels(ctx, owner.ID, space.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, domain.ChannelCloud, channels[0].Type)
}

func TestCreateSpaceEmptyName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")

	_, err := env.spaces.CreateSpace(context.Background(), owner.ID, CreateSpaceRequest{Name: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestAddMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	membership, err := env.spaces.AddMember(ctx, owner.ID, space.ID, other.ID, domain.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, membership.Role)

	// Duplicate membership is a conflict.
	_, err = env.spaces.AddMember(ctx, owner.ID, space.ID, other.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	member := env.createUser(t, "member@example.com")
	outsider := env.createUser(t, "outsider@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, member.ID, domain.RoleMember)
	require.NoError(t, err)

	// A plain member cannot add members.
	_, err = env.spaces.AddMember(ctx, member.ID, space.ID, outsider.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestAddMemberOwnerRoleRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(context.Background(), owner.ID, space.ID, other.ID, domain.RoleOwner)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	membership, err := env.spaces.AddMember(ctx, owner.ID, space.ID, other.ID, domain.RoleMember)
	require.NoError(t, err)

	require.NoError(t, env.spaces.RemoveMember(ctx, owner.ID, space.ID, membership.ID))

	members, err := env.spaces.ListMembers(ctx, owner.ID, space.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRemoveMemberOwnerProtected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	admin := env.createUser(t, "admin@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, admin.ID, domain.RoleAdmin)
	require.NoError(t, err)

	members, err := env.spaces.ListMembers(ctx, owner.ID, space.ID)
	require.NoError(t, err)
	var ownerMembershipID string
	for _, m := range members {
		if m.Role == domain.RoleOwner {
			ownerMembershipID = m.Membership.ID
		}
	}
	require.NotEmpty(t, ownerMembershipID)

	// The owner membership cannot be removed, regardless of the actor.
	err = env.spaces.RemoveMember(ctx, admin.ID, space.ID, ownerMembershipID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	err = env.spaces.RemoveMember(ctx, owner.ID, space.ID, ownerMembershipID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestRemoveMemberRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	a := env.createUser(t, "a@example.com")
	b := env.createUser(t, "b@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, a.ID, domain.RoleMember)
	require.NoError(t, err)
	mb, err := env.spaces.AddMember(ctx, owner.ID, space.ID, b.ID, domain.RoleMember)
	require.NoError(t, err)

	err = env.spaces.RemoveMember(ctx, a.ID, space.ID, mb.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestMemberCountsNeverOmitsASpace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")

	spaceA := env.createSpace(t, owner.ID, "Space A")
	spaceB := env.createSpace(t, owner.ID, "Space B")

	_, err := env.spaces.AddMember(ctx, owner.ID, spaceA.ID, other.ID, domain.RoleMember)
	require.NoError(t, err)

	counts, err := env.spaces.MemberCounts(ctx, []string{spaceA.ID, spaceB.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[spaceA.ID])
	assert.Equal(t, 1, counts[spaceB.ID], "a space with only its owner still appears")
}

func TestDeleteSpaceOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	admin := env.createUser(t, "admin@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, admin.ID, domain.RoleAdmin)
	require.NoError(t, err)

	err = env.spaces.DeleteSpace(ctx, admin.ID, space.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	require.NoError(t, env.spaces.DeleteSpace(ctx, owner.ID, space.ID))

	_, err = env.spaces.GetSpace(ctx, owner.ID, space.ID)
	require.Error(t, err)
}

func TestListSpacesWithCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")

	env.createSpace(t, owner.ID, "Space A")
	env.createSpace(t, owner.ID, "Space B")

	spaces, err := env.spaces.ListSpaces(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	for _, s := range spaces {
		assert.Equal(t, 1, s.MemberCount)
	}
}
