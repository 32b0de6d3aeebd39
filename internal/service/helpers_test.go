package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/session"
	"github.com/findshroom/findshroom-server/internal/store/sqlite"
)

// testEnv wires every service against temporary storage.
type testEnv struct {
	store         *sqlite.Store
	sessions      *session.Store
	tokens        *auth.TokenService
	tokenKey      []byte
	subscriptions *SubscriptionService
	stats         *StatsService
	auth          *AuthService
	markers       *MarkerService
	diary         *DiaryService
	catalog       *CatalogService
	admin         *AdminService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	return setupTestWithAdmin(t, "")
}

func setupTestWithAdmin(t *testing.T, adminUsername string) *testEnv {
	t.Helper()
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sessions, err := session.Open(filepath.Join(dir, "sessions"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	env := &testEnv{store: st, sessions: sessions, tokens: tokens, tokenKey: key}
	env.subscriptions = NewSubscriptionService(st, nil, nil)
	env.stats = NewStatsService(st, env.subscriptions, nil, nil)
	env.auth = NewAuthService(st, sessions, tokens, env.stats, adminUsername, nil)
	env.markers = NewMarkerService(st, env.subscriptions, env.stats, nil)
	env.diary = NewDiaryService(st, env.subscriptions, env.stats, nil)
	env.catalog = NewCatalogService(st, nil, nil)
	env.admin = NewAdminService(st, sessions, nil)
	return env
}

func (e *testEnv) register(t *testing.T, username string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{Username: username, Password: "secret"})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) user(t *testing.T, username string) *domain.User {
	t.Helper()
	return e.register(t, username).User
}

// expiredToken issues a token for an open session that has already expired.
// Expiry is stored at second precision, so a millisecond lifetime is over
// once the clock moves on.
func (e *testEnv) expiredToken(t *testing.T, resp *AuthResponse) string {
	t.Helper()
	short, err := auth.NewTokenService(e.tokenKey, time.Millisecond)
	require.NoError(t, err)
	token, _, err := short.GenerateAccessToken(resp.User, resp.SessionID)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	return token
}

func (e *testEnv) subscribe(t *testing.T, userID int64) {
	t.Helper()
	key, err := id.SubscriptionKey()
	require.NoError(t, err)
	ok, err := e.subscriptions.Activate(context.Background(), userID, key)
	require.NoError(t, err)
	require.True(t, ok)
}
