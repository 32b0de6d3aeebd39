package live

import (
	"context"
	"log/slog"

	"github.com/findshroom/findshroom-server/internal/store"
)

// Loader reads the current state of a query.
type Loader[T any] func(ctx context.Context) (T, error)

// Watch delivers the current result of load immediately and again after
// every committed write to collection. The channel closes when ctx ends.
//
// Notifications are coalesced: a consumer that is slow to receive gets the
// latest snapshot, not one per intervening write. Failed loads are logged
// and skipped; the next write triggers another attempt.
func Watch[T any](ctx context.Context, hub *Hub, collection store.Collection, load Loader[T], logger *slog.Logger) <-chan T {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	changes, cancel := hub.Subscribe(collection)
	out := make(chan T)

	go func() {
		defer close(out)
		defer cancel()

		// dirty is set by any change seen since the last successful load.
		dirty := true
		var (
			pending T
			have    bool
		)

		for {
			if dirty {
				snapshot, err := load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Warn("live query load failed", "collection", collection, "error", err)
				} else {
					pending, have = snapshot, true
				}
				dirty = false
			}

			var send chan<- T
			if have {
				send = out
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				dirty = true
				drain(changes)
			case send <- pending:
				have = false
			}
		}
	}()

	return out
}

// drain discards queued changes; one reload covers all of them.
func drain(changes <-chan store.Change) {
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
