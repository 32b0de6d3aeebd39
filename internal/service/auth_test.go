package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Username: "  forager ", Password: "pass"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "forager", resp.User.Username)
	assert.NotZero(t, resp.User.ID)
	assert.NotEqual(t, "pass", resp.User.PasswordHash)

	stats, err := env.store.GetUserStats(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stats, "registration should create stats")
	assert.Equal(t, 1, stats.Level)

	sess, err := env.sessions.Get(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, sess.UserID)
}

func TestAuthService_Register_FirstUserIsAdmin(t *testing.T) {
	env := setupTest(t)

	first := env.user(t, "first")
	second := env.user(t, "second")

	assert.True(t, first.IsAdmin)
	assert.False(t, second.IsAdmin)
}

func TestAuthService_Register_ConfiguredAdmin(t *testing.T) {
	env := setupTestWithAdmin(t, "boss")

	first := env.user(t, "first")
	boss := env.user(t, "boss")

	assert.False(t, first.IsAdmin)
	assert.True(t, boss.IsAdmin)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	env := setupTest(t)
	env.register(t, "forager")

	_, err := env.auth.Register(context.Background(), RegisterRequest{Username: "forager", Password: "other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "a user with this name already exists")

	n, err := env.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Password: "pass"}},
		{"short password", RegisterRequest{Username: "forager", Password: "abc"}},
		{"bad characters", RegisterRequest{Username: "for ager", Password: "pass"}},
		{"bad email", RegisterRequest{Username: "forager", Password: "pass", Email: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := setupTest(t)
	env.register(t, "forager")
	ctx := context.Background()

	resp, err := env.auth.Login(ctx, LoginRequest{Username: "forager", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = env.auth.Login(ctx, LoginRequest{Username: "forager", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Username: "nobody", Password: "secret"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestAuthService_VerifyAndLogout(t *testing.T) {
	env := setupTest(t)
	resp := env.register(t, "forager")
	ctx := context.Background()

	user, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.SessionID, claims.SessionID)

	require.NoError(t, env.auth.Logout(ctx, resp.SessionID))
	require.NoError(t, env.auth.Logout(ctx, resp.SessionID), "logout is idempotent")

	_, _, err = env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_VerifyAccessToken_Garbage(t *testing.T) {
	env := setupTest(t)
	_, _, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_VerifyAccessToken_Expired(t *testing.T) {
	env := setupTest(t)
	resp := env.register(t, "forager")

	_, _, err := env.auth.VerifyAccessToken(context.Background(), env.expiredToken(t, resp))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	assert.NotErrorIs(t, err, domainerrors.ErrUnauthorized)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 401, de.HTTPStatus())
}

func TestAuthService_LogoutAll(t *testing.T) {
	env := setupTest(t)
	first := env.register(t, "forager")
	ctx := context.Background()
	second, err := env.auth.Login(ctx, LoginRequest{Username: "forager", Password: "secret"})
	require.NoError(t, err)

	n, err := env.auth.LogoutAll(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, err = env.auth.VerifyAccessToken(ctx, second.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_CurrentUser(t *testing.T) {
	env := setupTest(t)
	u := env.user(t, "forager")

	got, err := env.auth.CurrentUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "forager", got.Username)

	_, err = env.auth.CurrentUser(context.Background(), 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
