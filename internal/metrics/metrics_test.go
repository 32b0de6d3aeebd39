package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/store"
)

func TestObserveRecognition(t *testing.T) {
	m := New()

	m.ObserveRecognition("space", OutcomeOK, 2*time.Second)
	m.ObserveRecognition("space", OutcomeOK, time.Second)
	m.ObserveRecognition("gemini", OutcomeDegraded, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recognitions.WithLabelValues("space", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recognitions.WithLabelValues("gemini", OutcomeDegraded)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRecognition("space", OutcomeError, time.Second)
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveChange("markers", "created")
	m.SetSSEClients(3)
	m.AddLevelUps(1)
	m.ObserveActivation(true)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/markers/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/api/v1/markers/1", "/api/v1/markers/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/markers/{id}", "404"))
	assert.Equal(t, 2.0, got)
}

func TestChangeCounterAndHandler(t *testing.T) {
	m := New()
	NewChangeCounter(m).Emit(store.Change{Collection: store.CollectionMarkers, Op: store.OpCreated})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `findshroom_store_changes_total{collection="markers",op="created"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
