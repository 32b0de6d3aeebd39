package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/live"
	"github.com/findshroom/findshroom-server/internal/media/images"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
	"github.com/findshroom/findshroom-server/internal/recognition"
	"github.com/findshroom/findshroom-server/internal/service"
	"github.com/findshroom/findshroom-server/internal/session"
	"github.com/findshroom/findshroom-server/internal/sse"
	"github.com/findshroom/findshroom-server/internal/store"
	"github.com/findshroom/findshroom-server/internal/store/sqlite"
)

// testEnvelope is the response envelope with typed data.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// stubRecognizer returns a fixed result or error.
type stubRecognizer struct {
	result *recognition.Result
	err    error
}

func (s *stubRecognizer) Name() string { return "stub" }

func (s *stubRecognizer) Recognize(context.Context, []byte) (*recognition.Result, error) {
	return s.result, s.err
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api        humatest.TestAPI
	store      *sqlite.Store
	recognizer *stubRecognizer
	tokenKey   []byte
	hub        *live.Hub
	sse        *sse.Manager
	metrics    *metrics.Metrics
}

// setupTestServer creates a server backed by a real SQLite store and session
// store in a temp directory.
func setupTestServer(t *testing.T) *testServer {
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

	photos, err := images.NewStorage(filepath.Join(dir, "photos"))
	require.NoError(t, err)

	m := metrics.New()
	hub := live.NewHub(nil)
	manager := sse.NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = manager.Shutdown(context.Background())
	})
	st.SetEmitter(store.MultiEmitter{hub, sse.NewBridge(manager), metrics.NewChangeCounter(m)})

	recognizer := &stubRecognizer{result: &recognition.Result{
		Attributes: recognition.Attributes{
			Name:           "Porcini",
			ScientificName: "Boletus edulis",
			IsEdible:       true,
		},
		Backend: "stub",
	}}

	subscriptions := service.NewSubscriptionService(st, m, nil)
	stats := service.NewStatsService(st, subscriptions, m, nil)
	catalog := service.NewCatalogService(st, nil, nil)
	services := &Services{
		Auth:         service.NewAuthService(st, sessions, tokens, stats, "", nil),
		Stats:        stats,
		Subscription: subscriptions,
		Catalog:      catalog,
		Marker:       service.NewMarkerService(st, subscriptions, stats, nil),
		Diary:        service.NewDiaryService(st, subscriptions, stats, nil),
		Recognition:  service.NewRecognitionService(recognizer, nil, catalog, nil),
		Photo:        service.NewPhotoService(photos, nil),
		Admin:        service.NewAdminService(st, sessions, nil),
	}

	limiter := ratelimit.PerMinute(1000)
	t.Cleanup(limiter.Stop)

	s := NewServer(services, Options{
		Version:     "test",
		Database:    st,
		Hub:         hub,
		SSE:         manager,
		Metrics:     m,
		AuthLimiter: limiter,
	}, nil)

	return &testServer{
		Server:     s,
		api:        humatest.Wrap(t, s.API()),
		store:      st,
		recognizer: recognizer,
		tokenKey:   key,
		hub:        hub,
		sse:        manager,
		metrics:    m,
	}
}

// registerUser creates an account through the API and returns its token.
// The first registered user is an admin.
func (ts *testServer) registerUser(t *testing.T, username string) (token string, user UserResponse) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": username,
		"password": "mushroom-pass",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())

	env := decode[AuthResponse](t, resp.Body.Bytes())
	return env.Data.AccessToken, env.Data.User
}

// subscribe activates a fresh key for the token's user.
func (ts *testServer) subscribe(t *testing.T, token string) {
	t.Helper()
	key := fmt.Sprintf("KEY-%d", time.Now().UnixNano())
	resp := ts.api.Post("/api/v1/subscription/activate", bearer(token), map[string]any{"key": key})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func (ts *testServer) seedMushroom(t *testing.T, name string, edible bool) *domain.Mushroom {
	t.Helper()
	m := &domain.Mushroom{Name: name, IsEdible: edible}
	require.NoError(t, ts.store.CreateMushroom(context.Background(), m))
	return m
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: 120, B: uint8(y * 30), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
