package recognition

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiBackendRequiresKey(t *testing.T) {
	_, err := NewGeminiBackend(GeminiConfig{})
	require.Error(t, err)
}

func TestGeminiFetch(t *testing.T) {
	img := testPNG(t)

	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"name\":"},{"text":"\"Porcini\"}"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiBackend(GeminiConfig{APIKey: "secret", Endpoint: srv.URL})
	require.NoError(t, err)

	raw, err := g.Fetch(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Porcini"}`, raw)

	require.Len(t, got.Contents, 1)
	parts := got.Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
	decoded, err := base64.StdEncoding.DecodeString(parts[0].InlineData.Data)
	require.NoError(t, err)
	assert.Equal(t, img, decoded)
	assert.Contains(t, parts[1].Text, "scientificName")
	assert.Contains(t, parts[1].Text, "no mushroom detected")
}

func TestGeminiFetchEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiBackend(GeminiConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), testPNG(t))
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestGeminiFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	g, err := NewGeminiBackend(GeminiConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), testPNG(t))
	require.Error(t, err)
	assert.Equal(t, "HTTP 403: API key not valid", err.Error())
}

func TestGeminiFetchRejectsNonImage(t *testing.T) {
	g, err := NewGeminiBackend(GeminiConfig{APIKey: "k", Endpoint: "http://127.0.0.1:0"})
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), []byte("not an image"))
	require.Error(t, err)
}
