package api

import (
	"github.com/findshroom/findshroom-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth         *service.AuthService
	Stats        *service.StatsService
	Subscription *service.SubscriptionService
	Catalog      *service.CatalogService
	Marker       *service.MarkerService
	Diary        *service.DiaryService
	Recognition  *service.RecognitionService
	Photo        *service.PhotoService
	Admin        *service.AdminService
}
