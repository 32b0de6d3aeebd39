package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/id"
)

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func TestMarkerService_Create_PrivacyRequiresSubscription(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	free := env.user(t, "free")
	premium := env.user(t, "premium")
	env.subscribe(t, premium.ID)

	m1, err := env.markers.Create(ctx, free.ID, CreateMarkerRequest{Latitude: 55.75, Longitude: 37.61, IsPrivate: true})
	require.NoError(t, err)
	assert.False(t, m1.IsPrivate, "non-subscriber cannot create private markers")

	m2, err := env.markers.Create(ctx, premium.ID, CreateMarkerRequest{Latitude: 55.75, Longitude: 37.61, IsPrivate: true})
	require.NoError(t, err)
	assert.True(t, m2.IsPrivate)
	assert.True(t, m2.OwnedBy(premium.ID))
	assert.False(t, m2.Timestamp.IsZero())
}

func TestMarkerService_Create_CountsMarkers(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	u := env.user(t, "alice")

	for range 3 {
		_, err := env.markers.Create(ctx, u.ID, CreateMarkerRequest{Latitude: 1, Longitude: 2})
		require.NoError(t, err)
	}

	st, err := env.stats.GetOrCreate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalMarkersCreated)
	assert.Equal(t, 1, st.Level, "markers do not award experience")
}

func TestMarkerService_Create_Validation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	u := env.user(t, "alice")

	tests := []struct {
		name string
		req  CreateMarkerRequest
	}{
		{"latitude out of range", CreateMarkerRequest{Latitude: 91, Longitude: 0}},
		{"longitude out of range", CreateMarkerRequest{Latitude: 0, Longitude: -181}},
		{"bad photo ref", CreateMarkerRequest{PhotoRef: "../../etc/passwd"}},
		{"unknown mushroom", CreateMarkerRequest{MushroomID: int64Ptr(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.markers.Create(ctx, u.ID, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestMarkerService_ListVisible(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	premium := env.user(t, "premium")
	free := env.user(t, "free")
	env.subscribe(t, premium.ID)

	_, err := env.markers.Create(ctx, premium.ID, CreateMarkerRequest{Title: "public"})
	require.NoError(t, err)
	_, err = env.markers.Create(ctx, premium.ID, CreateMarkerRequest{Title: "secret", IsPrivate: true})
	require.NoError(t, err)

	all, err := env.markers.ListVisible(ctx, premium.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "secret", all[0].Title, "newest first")

	visible, err := env.markers.ListVisible(ctx, free.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "public", visible[0].Title)
}

func TestMarkerService_Get_HidesPrivate(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	other := env.user(t, "other")
	env.subscribe(t, owner.ID)

	m, err := env.markers.Create(ctx, owner.ID, CreateMarkerRequest{IsPrivate: true})
	require.NoError(t, err)

	_, err = env.markers.Get(ctx, other.ID, m.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	got, err := env.markers.Get(ctx, owner.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	env.subscribe(t, other.ID)
	_, err = env.markers.Get(ctx, other.ID, m.ID)
	require.NoError(t, err)
}

func TestMarkerService_Update(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	other := env.user(t, "other")

	m, err := env.markers.Create(ctx, owner.ID, CreateMarkerRequest{Title: "old"})
	require.NoError(t, err)

	_, err = env.markers.Update(ctx, other.ID, m.ID, UpdateMarkerRequest{Title: strPtr("hijack")})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	ref := id.PhotoRef()
	updated, err := env.markers.Update(ctx, owner.ID, m.ID, UpdateMarkerRequest{
		Title:     strPtr("new"),
		PhotoRef:  &ref,
		IsPrivate: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, ref, updated.PhotoRef)
	assert.False(t, updated.IsPrivate, "owner without subscription cannot make it private")

	env.subscribe(t, owner.ID)
	updated, err = env.markers.Update(ctx, owner.ID, m.ID, UpdateMarkerRequest{IsPrivate: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPrivate)

	stored, err := env.store.GetMarker(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Title)
	assert.True(t, stored.IsPrivate)
}

func TestMarkerService_Update_LinksMushroom(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := env.user(t, "owner")

	mushroom, err := env.catalog.Save(ctx, owner, SaveMushroomRequest{Name: "Porcini"})
	require.NoError(t, err)
	m, err := env.markers.Create(ctx, owner.ID, CreateMarkerRequest{})
	require.NoError(t, err)

	updated, err := env.markers.Update(ctx, owner.ID, m.ID, UpdateMarkerRequest{MushroomID: &mushroom.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.MushroomID)
	assert.Equal(t, mushroom.ID, *updated.MushroomID)

	updated, err = env.markers.Update(ctx, owner.ID, m.ID, UpdateMarkerRequest{MushroomID: int64Ptr(0)})
	require.NoError(t, err)
	assert.Nil(t, updated.MushroomID)
}

func TestMarkerService_Delete(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	other := env.user(t, "other")

	m, err := env.markers.Create(ctx, owner.ID, CreateMarkerRequest{})
	require.NoError(t, err)

	assert.ErrorIs(t, env.markers.Delete(ctx, other.ID, m.ID), domainerrors.ErrForbidden)
	require.NoError(t, env.markers.Delete(ctx, owner.ID, m.ID))
	assert.ErrorIs(t, env.markers.Delete(ctx, owner.ID, m.ID), domainerrors.ErrNotFound)

	mine, err := env.markers.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
