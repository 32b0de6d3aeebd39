// Package di provides dependency injection configuration for the FindShroom server.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/di/providers"
	"github.com/findshroom/findshroom-server/internal/live"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideLiveHub)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Recognition layer
	do.Provide(injector, providers.ProvideRecognizer)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSubscriptionService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideMarkerService)
	do.Provide(injector, providers.ProvideDiaryService)
	do.Provide(injector, providers.ProvideRecognitionService)
	do.Provide(injector, providers.ProvidePhotoService)
	do.Provide(injector, providers.ProvideAdminService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services. A provider failure
// is returned as an error instead of a panic.
func Bootstrap(injector *do.RootScope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*live.Hub](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SessionStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.RecognizerHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SubscriptionService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.MarkerService](injector)
	_ = do.MustInvoke[*service.DiaryService](injector)
	_ = do.MustInvoke[*service.RecognitionService](injector)
	_ = do.MustInvoke[*service.PhotoService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
