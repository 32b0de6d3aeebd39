package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSession(id string, userID int64, ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{ID: id, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestPutAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sess := newSession("ses-1", 42, time.Hour)
	require.NoError(t, s.Put(ctx, sess))

	got, err := s.Get(ctx, "ses-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Millisecond)

	_, err = s.Get(ctx, "ses-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPut_RejectsExpired(t *testing.T) {
	s := setupTestStore(t)

	err := s.Put(context.Background(), newSession("ses-old", 1, -time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestGet_Expired(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newSession("ses-1", 1, time.Hour)))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := s.Get(ctx, "ses-1")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDelete_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newSession("ses-1", 1, time.Hour)))
	require.NoError(t, s.Delete(ctx, "ses-1"))
	require.NoError(t, s.Delete(ctx, "ses-1"))

	_, err := s.Get(ctx, "ses-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteForUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newSession("ses-a1", 1, time.Hour)))
	require.NoError(t, s.Put(ctx, newSession("ses-a2", 1, time.Hour)))
	require.NoError(t, s.Put(ctx, newSession("ses-b1", 12, time.Hour)))

	n, err := s.DeleteForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// User 12 shares a decimal prefix with user 1 and must be untouched.
	_, err = s.Get(ctx, "ses-b1")
	assert.NoError(t, err)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPurgeExpired(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newSession("ses-short", 1, time.Minute)))
	require.NoError(t, s.Put(ctx, newSession("ses-long", 1, 48*time.Hour)))

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, newSession("ses-1", 7, time.Hour)))
	require.NoError(t, s.Close())

	s2, err := Open(dir, nil)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "ses-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
}
