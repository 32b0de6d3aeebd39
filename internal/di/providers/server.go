package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/api"
	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/live"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
	"github.com/findshroom/findshroom-server/internal/service"
)

// authRequestsPerMinute bounds login and registration attempts per client IP.
const authRequestsPerMinute = 20

// Version is reported by /health and the OpenAPI document. Set with -ldflags.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	hub := do.MustInvoke[*live.Hub](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:         do.MustInvoke[*service.AuthService](i),
		Stats:        do.MustInvoke[*service.StatsService](i),
		Subscription: do.MustInvoke[*service.SubscriptionService](i),
		Catalog:      do.MustInvoke[*service.CatalogService](i),
		Marker:       do.MustInvoke[*service.MarkerService](i),
		Diary:        do.MustInvoke[*service.DiaryService](i),
		Recognition:  do.MustInvoke[*service.RecognitionService](i),
		Photo:        do.MustInvoke[*service.PhotoService](i),
		Admin:        do.MustInvoke[*service.AdminService](i),
	}

	handler := api.NewServer(services, api.Options{
		Version:        Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Database:       storeHandle.Store,
		Hub:            hub,
		SSE:            sseHandle.Manager,
		Metrics:        m,
		AuthLimiter:    ratelimit.PerMinute(authRequestsPerMinute),
		SearchEnabled:  indexHandle.SearchIndex != nil,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
