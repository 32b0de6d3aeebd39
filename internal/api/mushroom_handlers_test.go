package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/search"
)

func TestListMushrooms(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")
	ts.seedMushroom(t, "Porcini", true)
	ts.seedMushroom(t, "Fly agaric", false)
	ts.seedMushroom(t, "Chanterelle", true)

	resp := ts.api.Get("/api/v1/mushrooms", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	all := decode[MushroomListResponse](t, resp.Body.Bytes()).Data.Mushrooms
	require.Len(t, all, 3)
	assert.Equal(t, "Chanterelle", all[0].Name)

	resp = ts.api.Get("/api/v1/mushrooms?q=agar", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	found := decode[MushroomListResponse](t, resp.Body.Bytes()).Data.Mushrooms
	require.Len(t, found, 1)
	assert.Equal(t, "Fly agaric", found[0].Name)

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/v1/mushrooms").Code)
}

func TestSearchMushrooms_EdibleFilter(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")
	ts.seedMushroom(t, "Porcini", true)
	ts.seedMushroom(t, "Fly agaric", false)

	resp := ts.api.Get("/api/v1/mushrooms/search?edible=true", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decode[search.SearchResult](t, resp.Body.Bytes()).Data
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Porcini", result.Hits[0].Name)
	assert.EqualValues(t, 1, result.Total)
}

func TestSaveMushroom_Permissions(t *testing.T) {
	ts := setupTestServer(t)
	admin, _ := ts.registerUser(t, "alice")
	user, _ := ts.registerUser(t, "bob")

	resp := ts.api.Post("/api/v1/mushrooms", bearer(user), map[string]any{
		"name":            "Chanterelle",
		"scientific_name": "Cantharellus cibarius",
		"is_edible":       true,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	created := decode[domain.Mushroom](t, resp.Body.Bytes()).Data
	require.NotZero(t, created.ID)
	path := fmt.Sprintf("/api/v1/mushrooms/%d", created.ID)

	resp = ts.api.Put(path, bearer(user), map[string]any{"name": "Renamed"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, http.StatusForbidden, ts.api.Delete(path, bearer(user)).Code)

	resp = ts.api.Put(path, bearer(admin), map[string]any{"name": "Golden chanterelle", "is_edible": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Golden chanterelle", decode[domain.Mushroom](t, resp.Body.Bytes()).Data.Name)

	resp = ts.api.Get(path, bearer(user))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Golden chanterelle", decode[domain.Mushroom](t, resp.Body.Bytes()).Data.Name)

	assert.Equal(t, http.StatusNoContent, ts.api.Delete(path, bearer(admin)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(path, bearer(user)).Code)
}

func TestSaveMushroom_RequiresName(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")

	resp := ts.api.Post("/api/v1/mushrooms", bearer(token), map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}
