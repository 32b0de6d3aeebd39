package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/service"
)

func TestActivateSubscription(t *testing.T) {
	ts := setupTestServer(t)
	alice, _ := ts.registerUser(t, "alice")
	bob, _ := ts.registerUser(t, "bob")

	resp := ts.api.Get("/api/v1/subscription", bearer(alice))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[SubscriptionStatusResponse](t, resp.Body.Bytes()).Data.Active)

	resp = ts.api.Post("/api/v1/subscription/activate", bearer(alice), map[string]any{"key": "FOREST-2024"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, decode[ActivateSubscriptionResponse](t, resp.Body.Bytes()).Data.Activated)

	resp = ts.api.Get("/api/v1/subscription", bearer(alice))
	status := decode[SubscriptionStatusResponse](t, resp.Body.Bytes()).Data
	assert.True(t, status.Active)
	require.NotNil(t, status.Subscription)
	assert.Equal(t, "FOREST-2024", status.Subscription.Key)

	t.Run("key reuse", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/subscription/activate", bearer(bob), map[string]any{"key": "FOREST-2024"})
		require.Equal(t, http.StatusOK, resp.Code)
		env := decode[ActivateSubscriptionResponse](t, resp.Body.Bytes())
		assert.False(t, env.Data.Activated)
		assert.Equal(t, service.ReasonAlreadyUsed, env.Data.Reason)
	})

	t.Run("empty key", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/subscription/activate", bearer(bob), map[string]any{"key": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		resp := ts.api.Delete("/api/v1/subscription", bearer(alice))
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, 1, decode[CancelSubscriptionResponse](t, resp.Body.Bytes()).Data.Deactivated)

		resp = ts.api.Get("/api/v1/subscription", bearer(alice))
		assert.False(t, decode[SubscriptionStatusResponse](t, resp.Body.Bytes()).Data.Active)
	})
}
