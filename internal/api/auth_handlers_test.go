package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/domain"
)

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	ts := setupTestServer(t)

	token, admin := ts.registerUser(t, "alice")
	assert.NotEmpty(t, token)
	assert.True(t, admin.IsAdmin)

	_, second := ts.registerUser(t, "bob")
	assert.False(t, second.IsAdmin)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "alice",
		"password": "another-pass",
	})
	require.Equal(t, http.StatusConflict, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "ALREADY_EXISTS", env.Code)
	assert.Equal(t, "a user with this name already exists", env.Message)
}

func TestRegister_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "al",
		"password": "pw",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "alice")

	t.Run("valid credentials", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"username": "alice",
			"password": "mushroom-pass",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		env := decode[AuthResponse](t, resp.Body.Bytes())
		assert.True(t, env.Success)
		assert.Equal(t, EnvelopeVersion, env.Version)
		assert.NotEmpty(t, env.Data.AccessToken)
		assert.Equal(t, "alice", env.Data.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"username": "alice",
			"password": "wrong-pass",
		})
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		env := decode[any](t, resp.Body.Bytes())
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"username": "nobody",
			"password": "mushroom-pass",
		})
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		env := decode[any](t, resp.Body.Bytes())
		assert.Equal(t, "invalid username or password", env.Message)
	})
}

func TestCurrentUser_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/me")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", bearer("garbage"))
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	token, _ := ts.registerUser(t, "alice")
	resp = ts.api.Get("/api/v1/users/me", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "alice", env.Data.Username)
}

func TestCurrentUser_ExpiredToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "alice",
		"password": "mushroom-pass",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	reg := decode[AuthResponse](t, resp.Body.Bytes()).Data

	// Expiry has second precision, so a millisecond lifetime ends at once.
	short, err := auth.NewTokenService(ts.tokenKey, time.Millisecond)
	require.NoError(t, err)
	expired, _, err := short.GenerateAccessToken(&domain.User{ID: reg.User.ID}, reg.SessionID)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	resp = ts.api.Get("/api/v1/users/me", bearer(expired))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decode[any](t, resp.Body.Bytes()).Code)

	// A token that never verified stays a plain 401.
	resp = ts.api.Get("/api/v1/users/me", bearer("garbage"))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[any](t, resp.Body.Bytes()).Code)
}

func TestLogout_EndsSession(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/logout", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/users/me", bearer(token))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogoutAll(t *testing.T) {
	ts := setupTestServer(t)
	first, _ := ts.registerUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"username": "alice",
		"password": "mushroom-pass",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	second := decode[AuthResponse](t, resp.Body.Bytes()).Data.AccessToken

	resp = ts.api.Post("/api/v1/auth/logout-all", bearer(first))
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[LogoutResponse](t, resp.Body.Bytes())
	assert.Equal(t, 2, env.Data.SessionsEnded)

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/v1/users/me", bearer(second)).Code)
}
