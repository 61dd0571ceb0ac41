package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/blob"
	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// testEnv wires the services against a temporary sqlite store.
type testEnv struct {
	store       *sqlite.Store
	blobs       *blob.Store
	permissions *PermissionService
	spaces      *SpaceService
	invites     *InviteService
	channels    *ChannelService
	messages    *MessageService
	vaults      *VaultService
	files       *FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	blobs, err := blob.NewStore(tmpDir)
	require.NoError(t, err)

	emitter := store.NewNoopEmitter()
	permissions := NewPermissionService(s)

	return &testEnv{
		store:       s,
		blobs:       blobs,
		permissions: permissions,
		spaces:      NewSpaceService(s, permissions, emitter, logger),
		invites:     NewInviteService(s, permissions, emitter, logger),
		channels:    NewChannelService(s, permissions, emitter, logger),
		messages:    NewMessageService(s, permissions, nil, logger),
		vaults:      NewVaultService(s, permissions, blobs, emitter, logger),
		files:       NewFileService(s, permissions, blobs, emitter, logger, 10<<20),
	}
}

// createUser inserts a user row directly, bypassing the auth flow.
func (e *testEnv) createUser(t *testing.T, email string) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:          id.MustGenerate("usr"),
		Email:       email,
		DisplayName: email,
		LastLoginAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

// createSpace creates a space owned by the user through the service.
func (e *testEnv) createSpace(t *testing.T, ownerID, name string) *domain.Space {
	t.Helper()

	space, err := e.spaces.CreateSpace(context.Background(), ownerID, CreateSpaceRequest{Name: name})
	require.NoError(t, err)
	return space
}
