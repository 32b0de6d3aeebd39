package sse

import (
	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

// Bridge turns committed store writes into SSE events.
type Bridge struct {
	manager *Manager
}

var _ store.EventEmitter = (*Bridge)(nil)

// NewBridge creates a store.EventEmitter feeding manager.
func NewBridge(manager *Manager) *Bridge {
	return &Bridge{manager: manager}
}

// Emit implements store.EventEmitter.
func (b *Bridge) Emit(change store.Change) {
	if event, ok := EventForChange(change); ok {
		b.manager.Emit(event)
	}
}

// EventForChange maps a store change onto the event clients receive.
// Changes with no client-facing event report false.
func EventForChange(c store.Change) (Event, bool) {
	switch c.Collection {
	case store.CollectionMushrooms:
		if c.Op == store.OpDeleted {
			return NewDeletedEvent(EventMushroomDeleted, c.ID), true
		}
		if m, ok := c.Entity.(*domain.Mushroom); ok {
			return NewMushroomEvent(pick(c.Op, EventMushroomCreated, EventMushroomUpdated), m), true
		}

	case store.CollectionMarkers:
		m, _ := c.Entity.(*domain.MapMarker)
		if c.Op == store.OpDeleted {
			e := NewDeletedEvent(EventMarkerDeleted, c.ID)
			// Without the record, assume it was private.
			e.Private = m == nil || m.IsPrivate
			e.OwnerID = c.UserID
			return e, true
		}
		if m != nil {
			return NewMarkerEvent(pick(c.Op, EventMarkerCreated, EventMarkerUpdated), m), true
		}

	case store.CollectionDiary:
		if c.Op == store.OpDeleted {
			if c.UserID == 0 {
				return Event{}, false
			}
			e := NewDeletedEvent(EventDiaryDeleted, c.ID)
			e.UserID = c.UserID
			return e, true
		}
		if d, ok := c.Entity.(*domain.DiaryEntry); ok {
			return NewDiaryEvent(pick(c.Op, EventDiaryCreated, EventDiaryUpdated), d), true
		}

	case store.CollectionUserStats:
		if s, ok := c.Entity.(*domain.UserStats); ok {
			return NewStatsUpdatedEvent(s), true
		}

	case store.CollectionSubscriptions:
		if s, ok := c.Entity.(*domain.Subscription); ok {
			return NewSubscriptionEvent(pick(c.Op, EventSubscriptionActivated, EventSubscriptionUpdated), s), true
		}

	case store.CollectionUsers:
		if c.Op == store.OpDeleted {
			return NewDeletedEvent(EventUserDeleted, c.ID), true
		}
		if u, ok := c.Entity.(*domain.User); ok {
			return NewUserEvent(pick(c.Op, EventUserCreated, EventUserUpdated), u), true
		}
	}
	return Event{}, false
}

func pick(op store.Op, created, updated EventType) EventType {
	if op == store.OpCreated {
		return created
	}
	return updated
}
