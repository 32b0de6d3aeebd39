package store

import (
	"context"

	"github.com/findshroom/findshroom-server/internal/domain"
)

// Collection names an entity collection for change notifications.
type Collection string

// Collections.
const (
	CollectionMushrooms     Collection = "mushrooms"
	CollectionMarkers       Collection = "markers"
	CollectionUsers         Collection = "users"
	CollectionSubscriptions Collection = "subscriptions"
	CollectionUserStats     Collection = "user_stats"
	CollectionDiary         Collection = "diary"
)

// Op is the kind of committed write.
type Op string

// Write operations.
const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one committed write. Entity holds a copy of the written
// record for creates and updates. Marker deletes carry the removed record;
// other deletes leave it nil.
type Change struct {
	Collection Collection
	Op         Op
	ID         int64
	// UserID is the owner of the changed record, zero when it has none.
	UserID int64
	Entity any
}

// EventEmitter receives a Change after every committed write.
// Implementations must not block.
type EventEmitter interface {
	Emit(change Change)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(Change) {}

// NewNoopEmitter creates a new no-op emitter.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// MultiEmitter forwards each change to every emitter in order.
type MultiEmitter []EventEmitter

// Emit implements EventEmitter.
func (m MultiEmitter) Emit(change Change) {
	for _, e := range m {
		e.Emit(change)
	}
}

// SearchIndexer keeps the catalog search index in sync with store writes.
type SearchIndexer interface {
	IndexMushroom(ctx context.Context, m *domain.Mushroom) error
	DeleteMushroom(ctx context.Context, id int64) error
}

// NoopSearchIndexer is used when full-text search is disabled.
type NoopSearchIndexer struct{}

// IndexMushroom is a no-op.
func (NoopSearchIndexer) IndexMushroom(context.Context, *domain.Mushroom) error { return nil }

// DeleteMushroom is a no-op.
func (NoopSearchIndexer) DeleteMushroom(context.Context, int64) error { return nil }
