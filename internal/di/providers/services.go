package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/media/images"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
	"github.com/findshroom/findshroom-server/internal/service"
)

// ProvideSubscriptionService provides the subscription activation service.
func ProvideSubscriptionService(i do.Injector) (*service.SubscriptionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	var observer service.ActivationObserver
	if m != nil {
		observer = m
	}
	return service.NewSubscriptionService(storeHandle.Store, observer, log.Component("subscription")), nil
}

// ProvideStatsService provides the progression service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	subscriptions := do.MustInvoke[*service.SubscriptionService](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	var observer service.LevelObserver
	if m != nil {
		observer = m
	}
	return service.NewStatsService(storeHandle.Store, subscriptions, observer, log.Component("stats")), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	stats := do.MustInvoke[*service.StatsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		sessions.Store,
		tokenService,
		stats,
		cfg.Auth.AdminUsername,
		log.Component("auth"),
	), nil
}

// ProvideCatalogService provides the mushroom catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	var index service.FullTextIndex
	if indexHandle.SearchIndex != nil {
		index = indexHandle.SearchIndex
	}
	return service.NewCatalogService(storeHandle.Store, index, log.Component("catalog")), nil
}

// ProvideMarkerService provides the map marker service.
func ProvideMarkerService(i do.Injector) (*service.MarkerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	subscriptions := do.MustInvoke[*service.SubscriptionService](i)
	stats := do.MustInvoke[*service.StatsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMarkerService(storeHandle.Store, subscriptions, stats, log.Component("marker")), nil
}

// ProvideDiaryService provides the diary service.
func ProvideDiaryService(i do.Injector) (*service.DiaryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	subscriptions := do.MustInvoke[*service.SubscriptionService](i)
	stats := do.MustInvoke[*service.StatsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDiaryService(storeHandle.Store, subscriptions, stats, log.Component("diary")), nil
}

// ProvideRecognitionService provides the recognition service with a
// per-user rate limit.
func ProvideRecognitionService(i do.Injector) (*service.RecognitionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	recognizer := do.MustInvoke[*RecognizerHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	var limiter *ratelimit.KeyedRateLimiter
	if n := cfg.Recognition.RatePerMinute; n > 0 {
		limiter = ratelimit.PerMinute(n)
	}

	return service.NewRecognitionService(recognizer.Recognizer, limiter, catalog, log.Component("recognition")), nil
}

// ProvidePhotoService provides photo storage.
func ProvidePhotoService(i do.Injector) (*service.PhotoService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Data.BasePath)
	if err != nil {
		return nil, fmt.Errorf("photo storage: %w", err)
	}
	log.Info("Photo storage initialized", "path", cfg.Path("photos"))

	return service.NewPhotoService(storage, log.Component("photo")), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, sessions.Store, log.Component("admin")), nil
}
