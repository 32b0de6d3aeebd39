package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/store"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestWatch_InitialSnapshotThenUpdates(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var version atomic.Int64
	load := func(context.Context) (int64, error) { return version.Load(), nil }

	snapshots := Watch(ctx, hub, store.CollectionMarkers, load, nil)
	assert.Equal(t, int64(0), receive(t, snapshots))

	version.Store(1)
	hub.Emit(store.Change{Collection: store.CollectionMarkers, Op: store.OpCreated})
	assert.Equal(t, int64(1), receive(t, snapshots))

	// Writes to other collections do not trigger a reload.
	version.Store(2)
	hub.Emit(store.Change{Collection: store.CollectionDiary})
	select {
	case v := <-snapshots:
		t.Fatalf("unexpected snapshot %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatch_CoalescesForSlowConsumer(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var version atomic.Int64
	load := func(context.Context) (int64, error) { return version.Load(), nil }

	snapshots := Watch(ctx, hub, store.CollectionMushrooms, load, nil)
	require.Equal(t, int64(0), receive(t, snapshots))

	for i := 1; i <= 10; i++ {
		version.Store(int64(i))
		hub.Emit(store.Change{Collection: store.CollectionMushrooms})
	}

	// The consumer eventually observes the latest state, possibly skipping
	// intermediate ones.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-snapshots:
			if v == 10 {
				return
			}
		case <-deadline:
			t.Fatal("never observed latest snapshot")
		}
	}
}

func TestWatch_ClosesOnContextEnd(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	snapshots := Watch(ctx, hub, store.CollectionDiary, func(context.Context) (string, error) {
		return "state", nil
	}, nil)
	require.Equal(t, "state", receive(t, snapshots))

	cancel()

	select {
	case _, ok := <-snapshots:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(store.CollectionDiary) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestWatch_SkipsFailedLoads(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	load := func(context.Context) (int64, error) {
		n := calls.Add(1)
		if n == 1 {
			return 0, errors.New("database is locked")
		}
		return n, nil
	}

	snapshots := Watch(ctx, hub, store.CollectionUserStats, load, nil)
	hub.Emit(store.Change{Collection: store.CollectionUserStats})

	assert.Equal(t, int64(2), receive(t, snapshots))
}
