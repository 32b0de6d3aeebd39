// Package store defines the persistence interface for the FindShroom server.
package store

import (
	"context"

	"github.com/findshroom/findshroom-server/internal/domain"
)

// Store defines the interface for all persistence operations.
// Each method is a single write or read; there are no cross-entity transactions.
type Store interface {
	// Lifecycle
	Close() error
	SetEmitter(emitter EventEmitter)
	SetSearchIndexer(indexer SearchIndexer)

	// Mushrooms
	CreateMushroom(ctx context.Context, m *domain.Mushroom) error
	GetMushroom(ctx context.Context, id int64) (*domain.Mushroom, error)
	UpdateMushroom(ctx context.Context, m *domain.Mushroom) error
	SaveMushroom(ctx context.Context, m *domain.Mushroom) error
	DeleteMushroom(ctx context.Context, id int64) error
	ListMushrooms(ctx context.Context) ([]domain.Mushroom, error)
	SearchMushrooms(ctx context.Context, query string) ([]domain.Mushroom, error)
	CountMushrooms(ctx context.Context) (int, error)

	// Markers
	CreateMarker(ctx context.Context, m *domain.MapMarker) error
	GetMarker(ctx context.Context, id int64) (*domain.MapMarker, error)
	UpdateMarker(ctx context.Context, m *domain.MapMarker) error
	DeleteMarker(ctx context.Context, id int64) error
	ListMarkers(ctx context.Context) ([]domain.MapMarker, error)
	ListMarkersByUser(ctx context.Context, userID int64) ([]domain.MapMarker, error)

	// Users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	CountUsers(ctx context.Context) (int, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	GetSubscriptionByKey(ctx context.Context, key string) (*domain.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID int64) (*domain.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *domain.Subscription) error
	ListSubscriptionsByUser(ctx context.Context, userID int64) ([]domain.Subscription, error)

	// User stats
	GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error)
	GetOrCreateUserStats(ctx context.Context, userID int64) (*domain.UserStats, error)
	SaveUserStats(ctx context.Context, stats *domain.UserStats) error
	ListUserStats(ctx context.Context, limit int) ([]domain.UserStats, error)

	// Diary
	CreateDiaryEntry(ctx context.Context, e *domain.DiaryEntry) error
	GetDiaryEntry(ctx context.Context, id int64) (*domain.DiaryEntry, error)
	UpdateDiaryEntry(ctx context.Context, e *domain.DiaryEntry) error
	DeleteDiaryEntry(ctx context.Context, id int64) error
	ListDiaryEntries(ctx context.Context, userID int64) ([]domain.DiaryEntry, error)
}
