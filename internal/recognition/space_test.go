package recognition

import (
	"bytes"
	"context"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceFetchUploadsJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "mushroom.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		_, err = jpeg.Decode(bytes.NewReader(data))
		assert.NoError(t, err)

		_, _ = w.Write([]byte(`  {"name":"Chanterelle"}  `))
	}))
	defer srv.Close()

	s := NewSpaceBackend(SpaceConfig{URL: srv.URL})
	raw, err := s.Fetch(context.Background(), testPNG(t))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Chanterelle"}`, raw)
}

func TestSpaceFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model loading"))
	}))
	defer srv.Close()

	s := NewSpaceBackend(SpaceConfig{URL: srv.URL})
	_, err := s.Fetch(context.Background(), testPNG(t))
	require.Error(t, err)
	assert.Equal(t, "HTTP 503: model loading", err.Error())
}

func TestSpaceFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSpaceBackend(SpaceConfig{URL: srv.URL})
	_, err := s.Fetch(context.Background(), testPNG(t))
	require.Error(t, err)
}

func TestSpaceFetchRejectsCorruptImage(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := NewSpaceBackend(SpaceConfig{URL: srv.URL})
	_, err := s.Fetch(context.Background(), []byte{0xff, 0xd8, 0x00})
	require.Error(t, err)
	assert.False(t, called)
}

func TestSpaceFetchStalledBodyTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":`))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := newSpaceBackend(SpaceConfig{URL: srv.URL}, 100*time.Millisecond)
	start := time.Now()
	_, err := s.Fetch(context.Background(), testPNG(t))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSpaceFetchSlowHeadersTimeOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := newSpaceBackend(SpaceConfig{URL: srv.URL}, 100*time.Millisecond)
	_, err := s.Fetch(context.Background(), testPNG(t))
	require.Error(t, err)
}

func TestSpaceFetchSteadyResponseWithinPhase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		for _, chunk := range []string{`{`, `"name"`, `:`, `"Morel"`, `}`} {
			_, _ = w.Write([]byte(chunk))
			w.(http.Flusher).Flush()
			time.Sleep(50 * time.Millisecond)
		}
	}))
	defer srv.Close()

	// Total time exceeds one phase, but no single read stalls that long.
	s := newSpaceBackend(SpaceConfig{URL: srv.URL}, 150*time.Millisecond)
	raw, err := s.Fetch(context.Background(), testPNG(t))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Morel"}`, raw)
}
