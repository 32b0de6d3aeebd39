// Package live turns store writes into observable queries.
//
// A Hub receives every committed store.Change and fans it out to the
// subscribers of that collection. Watch builds on it to deliver a fresh
// snapshot of a query after each write, for as long as the caller's
// context lives.
package live

import (
	"log/slog"
	"sync"

	"github.com/findshroom/findshroom-server/internal/store"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind loses the oldest-pending changes, never blocks the writer.
const subscriberBuffer = 32

// Hub fans committed changes out to subscribers by collection.
type Hub struct {
	mu     sync.RWMutex
	subs   map[store.Collection]map[uint64]chan store.Change
	nextID uint64
	logger *slog.Logger
}

var _ store.EventEmitter = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		subs:   make(map[store.Collection]map[uint64]chan store.Change),
		logger: logger,
	}
}

// Emit implements store.EventEmitter. It never blocks.
func (h *Hub) Emit(change store.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[change.Collection] {
		select {
		case ch <- change:
		default:
			h.logger.Debug("live subscriber lagging, change dropped",
				"collection", change.Collection,
				"op", change.Op,
				"id", change.ID,
			)
		}
	}
}

// Subscribe registers interest in a collection. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(collection store.Collection) (<-chan store.Change, func()) {
	ch := make(chan store.Change, subscriberBuffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[uint64]chan store.Change)
	}
	h.subs[collection][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[collection], id)
			if len(h.subs[collection]) == 0 {
				delete(h.subs, collection)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscriptions on a collection.
func (h *Hub) SubscriberCount(collection store.Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}
