package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/havenapp/haven-server/internal/logger"
)

// sessionSweepInterval is how often expired refresh sessions are purged.
const sessionSweepInterval = 1 * time.Hour

// SessionCleanupJob periodically deletes expired sessions so revoked and
// stale refresh tokens do not accumulate in the database.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the background session sweeper.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	sweep := func() {
		count, err := storeHandle.DeleteExpiredSessions(ctx)
		if err != nil {
			log.Warn("Session cleanup failed", "error", err)
			return
		}
		if count > 0 {
			log.Info("Expired sessions removed", "deleted", count)
		}
	}

	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()

		// Catch up immediately after a restart.
		sweep()

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started", "interval", sessionSweepInterval)

	return &SessionCleanupJob{cancel: cancel}, nil
}
