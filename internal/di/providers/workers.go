package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/logger"
)

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
// Badger TTLs hide expired sessions from reads; this job also drops their
// per-user index entries.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count, err := sessions.PurgeExpired(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)

	return &SessionCleanupJob{cancel: cancel}, nil
}
