package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
)

func TestCreateChannelNormalizesName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	channel, err := env.channels.CreateChannel(context.Background(), owner.ID, space.ID, CreateChannelRequest{
		Name: "  General Chat  ",
		Type: domain.ChannelText,
	})
	require.NoError(t, err)
	assert.Equal(t, "general-chat", channel.Name)
}

func TestCreateChannelRejectsCloudType(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.channels.CreateChannel(context.Background(), owner.ID, space.ID, CreateChannelRequest{
		Name: "another-cloud",
		Type: domain.ChannelCloud,
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCreateChannelRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	outsider := env.createUser(t, "outsider@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.channels.CreateChannel(context.Background(), outsider.ID, space.ID, CreateChannelRequest{
		Name: "general",
		Type: domain.ChannelText,
	})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestDeleteChannel(t *testing.T) {
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

	// A plain member may not delete channels.
	err = env.channels.DeleteChannel(ctx, member.ID, space.ID, text.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// The owner may.
	require.NoError(t, env.channels.DeleteChannel(ctx, owner.ID, space.ID, text.ID))
}

func TestDeleteCloudChannelConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	cloud, err := env.store.GetCloudChannel(ctx, space.ID)
	require.NoError(t, err)

	err = env.channels.DeleteChannel(ctx, owner.ID, space.ID, cloud.ID)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// Still there.
	channels, err := env.channels.ListChannels(ctx, owner.ID, space.ID)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestChannelAttrs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	member := env.createUser(t, "member@example.com")
	space := env.createSpace(t, owner.ID, "Team A")

	_, err := env.spaces.AddMember(ctx, owner.ID, space.ID, member.ID, domain.RoleMember)
	require.NoError(t, err)

	channel, err := env.channels.CreateChannel(ctx, owner.ID, space.ID, CreateChannelRequest{
		Name: "general", Type: domain.ChannelText,
	})
	require.NoError(t, err)

	// Writes need owner or admin role.
	_, err = env.channels.SetChannelAttr(ctx, member.ID, channel.ID, "topic", `"release planning"`)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.channels.SetChannelAttr(ctx, owner.ID, channel.ID, "topic", `"release planning"`)
	require.NoError(t, err)

	// Members can read.
	attrs, err := env.channels.ListChannelAttrs(ctx, member.ID, channel.ID)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "topic", attrs[0].Key)
}
