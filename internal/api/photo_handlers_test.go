package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/service"
)

func TestPhotos_UploadAndGet(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, multipartRequest(t, "/api/v1/photos", "file", pngBytes(t), token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	photo := decode[service.UploadedPhoto](t, w.Body.Bytes()).Data
	require.NotEmpty(t, photo.Ref)
	assert.NotEmpty(t, photo.BlurHash)
	assert.Positive(t, photo.Size)

	get := func(etag string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/photos/"+photo.Ref, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		w := httptest.NewRecorder()
		ts.ServeHTTP(w, req)
		return w
	}

	w = get("")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, photo.Size, w.Body.Len())
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = get(etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestPhotos_RejectsNonImage(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, multipartRequest(t, "/api/v1/photos", "file", []byte("not an image"), token))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestPhotos_UnknownRef(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/photos/ph-doesnotexist", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}
