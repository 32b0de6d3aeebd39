// Package sse pushes catalog, map, diary and progression changes to
// connected clients as Server-Sent Events.
package sse

import (
	"time"

	"github.com/findshroom/findshroom-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is sent once when a stream opens.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	EventMushroomCreated EventType = "mushroom.created"
	EventMushroomUpdated EventType = "mushroom.updated"
	EventMushroomDeleted EventType = "mushroom.deleted"

	EventMarkerCreated EventType = "marker.created"
	EventMarkerUpdated EventType = "marker.updated"
	EventMarkerDeleted EventType = "marker.deleted"

	// Diary, stats and subscription events go to the owner only.
	EventDiaryCreated EventType = "diary.created"
	EventDiaryUpdated EventType = "diary.updated"
	EventDiaryDeleted EventType = "diary.deleted"

	EventStatsUpdated EventType = "stats.updated"

	EventSubscriptionActivated EventType = "subscription.activated"
	EventSubscriptionUpdated   EventType = "subscription.updated"

	// User events are admin-only.
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user. Zero means everyone.
	UserID int64 `json:"-"`
	// Private events reach only subscribers, admins and OwnerID.
	Private bool  `json:"-"`
	OwnerID int64 `json:"-"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// ConnectedEventData is the data payload of the first event on a stream.
type ConnectedEventData struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// DeletedEventData identifies a deleted record.
type DeletedEventData struct {
	ID        int64     `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// MushroomEventData is the data payload for mushroom events.
type MushroomEventData struct {
	Mushroom *domain.Mushroom `json:"mushroom"`
}

// MarkerEventData is the data payload for marker events.
type MarkerEventData struct {
	Marker *domain.MapMarker `json:"marker"`
}

// DiaryEventData is the data payload for diary events.
type DiaryEventData struct {
	Entry *domain.DiaryEntry `json:"entry"`
}

// StatsEventData is the data payload for stats events.
type StatsEventData struct {
	Stats *domain.UserStats `json:"stats"`
	Title domain.LevelTitle `json:"title"`
}

// SubscriptionEventData is the data payload for subscription events.
type SubscriptionEventData struct {
	Subscription *domain.Subscription `json:"subscription"`
}

// UserEventData is the data payload for user events.
type UserEventData struct {
	User *domain.User `json:"user"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}

// NewConnectedEvent creates the stream's opening event.
func NewConnectedEvent(clientID string) Event {
	return Event{
		Type:      EventConnected,
		Data:      ConnectedEventData{ClientID: clientID, Message: "SSE connection established"},
		Timestamp: time.Now(),
	}
}

// NewMushroomEvent creates a mushroom.created or mushroom.updated event.
func NewMushroomEvent(t EventType, m *domain.Mushroom) Event {
	return Event{Type: t, Data: MushroomEventData{Mushroom: m}, Timestamp: time.Now()}
}

// NewMarkerEvent creates a marker.created or marker.updated event. Private
// markers are flagged so broadcast can filter them.
func NewMarkerEvent(t EventType, m *domain.MapMarker) Event {
	e := Event{Type: t, Data: MarkerEventData{Marker: m}, Timestamp: time.Now(), Private: m.IsPrivate}
	if m.UserID != nil {
		e.OwnerID = *m.UserID
	}
	return e
}

// NewDeletedEvent creates a *.deleted event carrying only the id.
func NewDeletedEvent(t EventType, id int64) Event {
	now := time.Now()
	return Event{Type: t, Data: DeletedEventData{ID: id, DeletedAt: now}, Timestamp: now}
}

// NewDiaryEvent creates an owner-only diary event.
func NewDiaryEvent(t EventType, e *domain.DiaryEntry) Event {
	return Event{Type: t, Data: DiaryEventData{Entry: e}, Timestamp: time.Now(), UserID: e.UserID}
}

// NewStatsUpdatedEvent creates an owner-only stats.updated event.
func NewStatsUpdatedEvent(s *domain.UserStats) Event {
	return Event{
		Type:      EventStatsUpdated,
		Data:      StatsEventData{Stats: s, Title: domain.TitleForLevel(s.Level)},
		Timestamp: time.Now(),
		UserID:    s.UserID,
	}
}

// NewSubscriptionEvent creates an owner-only subscription event.
func NewSubscriptionEvent(t EventType, s *domain.Subscription) Event {
	return Event{Type: t, Data: SubscriptionEventData{Subscription: s}, Timestamp: time.Now(), UserID: s.UserID}
}

// NewUserEvent creates an admin-only user event.
func NewUserEvent(t EventType, u *domain.User) Event {
	return Event{Type: t, Data: UserEventData{User: u}, Timestamp: time.Now()}
}
