package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/live"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/session"
	"github.com/findshroom/findshroom-server/internal/sse"
	"github.com/findshroom/findshroom-server/internal/store"
	"github.com/findshroom/findshroom-server/internal/store/sqlite"
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
	m := do.MustInvoke[*metrics.Metrics](i)

	manager := sse.NewManager(log.Logger)
	if m != nil {
		manager.SetClientGauge(m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// ProvideLiveHub provides the live-query hub.
func ProvideLiveHub(i do.Injector) (*live.Hub, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return live.NewHub(log.Component("live")), nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store. Every committed write fans out to
// the live hub, the SSE bridge and, when enabled, the change counter.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	hub := do.MustInvoke[*live.Hub](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := cfg.Path("findshroom.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	emitters := store.MultiEmitter{hub, sse.NewBridge(sseHandle.Manager)}
	if m != nil {
		emitters = append(emitters, metrics.NewChangeCounter(m))
	}
	db.SetEmitter(emitters)

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// SessionStoreHandle wraps the badger session store with shutdown capability.
type SessionStoreHandle struct {
	*session.Store
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore opens the durable session store and drops sessions
// that expired while the server was down.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sessions, err := session.Open(cfg.Path("sessions"), log.Component("session"))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	purged, err := sessions.PurgeExpired(ctx)
	if err != nil {
		log.Warn("Expired session purge failed", "error", err)
	}
	restored, _ := sessions.Count()
	log.Info("Sessions restored", "active", restored, "purged", purged)

	return &SessionStoreHandle{Store: sessions}, nil
}
