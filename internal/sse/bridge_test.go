package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

func TestEventForChange(t *testing.T) {
	owner := int64(4)

	tests := []struct {
		name     string
		change   store.Change
		wantType EventType
		wantUser int64
		private  bool
	}{
		{
			name:     "mushroom created",
			change:   store.Change{Collection: store.CollectionMushrooms, Op: store.OpCreated, ID: 1, Entity: &domain.Mushroom{ID: 1}},
			wantType: EventMushroomCreated,
		},
		{
			name:     "mushroom deleted",
			change:   store.Change{Collection: store.CollectionMushrooms, Op: store.OpDeleted, ID: 1},
			wantType: EventMushroomDeleted,
		},
		{
			name:     "private marker updated",
			change:   store.Change{Collection: store.CollectionMarkers, Op: store.OpUpdated, ID: 2, UserID: owner, Entity: &domain.MapMarker{ID: 2, UserID: &owner, IsPrivate: true}},
			wantType: EventMarkerUpdated,
			private:  true,
		},
		{
			name:     "public marker deleted",
			change:   store.Change{Collection: store.CollectionMarkers, Op: store.OpDeleted, ID: 2, UserID: owner, Entity: &domain.MapMarker{ID: 2, UserID: &owner}},
			wantType: EventMarkerDeleted,
		},
		{
			name:     "diary created",
			change:   store.Change{Collection: store.CollectionDiary, Op: store.OpCreated, ID: 3, UserID: owner, Entity: &domain.DiaryEntry{ID: 3, UserID: owner}},
			wantType: EventDiaryCreated,
			wantUser: owner,
		},
		{
			name:     "diary deleted",
			change:   store.Change{Collection: store.CollectionDiary, Op: store.OpDeleted, ID: 3, UserID: owner},
			wantType: EventDiaryDeleted,
			wantUser: owner,
		},
		{
			name:     "stats created",
			change:   store.Change{Collection: store.CollectionUserStats, Op: store.OpCreated, ID: owner, UserID: owner, Entity: &domain.UserStats{UserID: owner, Level: 1}},
			wantType: EventStatsUpdated,
			wantUser: owner,
		},
		{
			name:     "subscription activated",
			change:   store.Change{Collection: store.CollectionSubscriptions, Op: store.OpCreated, ID: 5, UserID: owner, Entity: &domain.Subscription{ID: 5, UserID: owner}},
			wantType: EventSubscriptionActivated,
			wantUser: owner,
		},
		{
			name:     "user created",
			change:   store.Change{Collection: store.CollectionUsers, Op: store.OpCreated, ID: owner, UserID: owner, Entity: &domain.User{ID: owner}},
			wantType: EventUserCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := EventForChange(tt.change)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, e.Type)
			assert.Equal(t, tt.wantUser, e.UserID)
			assert.Equal(t, tt.private, e.Private)
		})
	}
}

func TestEventForChange_MarkerDeleteWithoutRecordIsPrivate(t *testing.T) {
	e, ok := EventForChange(store.Change{Collection: store.CollectionMarkers, Op: store.OpDeleted, ID: 9})
	require.True(t, ok)
	assert.True(t, e.Private)
}

func TestEventForChange_Unmapped(t *testing.T) {
	_, ok := EventForChange(store.Change{Collection: store.CollectionMushrooms, Op: store.OpUpdated, ID: 1})
	assert.False(t, ok, "updates without a record are skipped")

	_, ok = EventForChange(store.Change{Collection: store.CollectionDiary, Op: store.OpDeleted, ID: 1})
	assert.False(t, ok, "diary deletes without an owner are skipped")
}
