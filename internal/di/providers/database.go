package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/havenapp/haven-server/internal/blob"
	"github.com/havenapp/haven-server/internal/config"
	"github.com/havenapp/haven-server/internal/logger"
	"github.com/havenapp/haven-server/internal/presence"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "haven.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	// Message writes flow into the search index through the store hook.
	db.SetEmitter(sseHandle.Manager)
	db.SetSearchIndexer(searchHandle.SearchIndex)

	// Wire up membership filtering for SSE broadcasts. Space-scoped events
	// are delivered per-client based on the client's memberships.
	sseHandle.SetMembershipChecker(func(ctx context.Context, userID, spaceID string) bool {
		membership, err := db.GetMembershipByUser(ctx, spaceID, userID)
		if err != nil {
			return false
		}
		return membership != nil
	})

	return &StoreHandle{Store: db}, nil
}

// ProvideBlobStore provides the filesystem blob store for uploaded files.
func ProvideBlobStore(i do.Injector) (*blob.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	blobs, err := blob.NewStore(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Blob store initialized", "base_path", cfg.Data.BasePath)

	return blobs, nil
}

// PresenceStoreHandle wraps the presence store with shutdown capability.
type PresenceStoreHandle struct {
	*presence.Store
}

// Shutdown implements do.Shutdownable.
func (h *PresenceStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvidePresenceStore provides the Badger-backed presence store.
// Entries carry a TTL so stale presence ages out without a sweeper.
func ProvidePresenceStore(i do.Injector) (*PresenceStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	presencePath := filepath.Join(cfg.Data.BasePath, "presence")
	store, err := presence.Open(presencePath, cfg.Uploads.PresenceTTL, log.Logger)
	if err != nil {
		return nil, err
	}

	return &PresenceStoreHandle{Store: store}, nil
}
