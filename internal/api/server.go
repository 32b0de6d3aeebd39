// Package api provides the HTTP API server and handlers for the FindShroom application.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/findshroom/findshroom-server/internal/live"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
	"github.com/findshroom/findshroom-server/internal/sse"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the infrastructure the server needs besides services.
type Options struct {
	Version        string
	AllowedOrigins []string

	Database Pinger
	Hub      *live.Hub
	SSE      *sse.Manager
	// Metrics is optional; nil disables /metrics and request instrumentation.
	Metrics *metrics.Metrics
	// AuthLimiter is optional; nil disables rate limiting on login and register.
	AuthLimiter *ratelimit.KeyedRateLimiter
	// SearchEnabled reports whether the full-text index is in use.
	SearchEnabled bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		services: services,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("FindShroom API", opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		s.router.Use(s.opts.Metrics.Middleware)
	}
	s.router.Use(middleware.Compress(5))

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.services.Auth))
}

// requestLogger logs one line per request with the chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.LogAttrs(r.Context(), level, "HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerMushroomRoutes()
	s.registerMarkerRoutes()
	s.registerDiaryRoutes()
	s.registerSubscriptionRoutes()
	s.registerRecognitionRoutes()
	s.registerAdminRoutes()

	// Streams and binary bodies bypass huma.
	s.router.Post("/api/v1/recognize", s.handleRecognize)
	s.router.Post("/api/v1/photos", s.handleUploadPhoto)
	s.router.Get("/api/v1/photos/{ref}", s.handleGetPhoto)
	s.router.Get("/api/v1/leaderboard/live", s.handleLeaderboardLive)
	if s.opts.SSE != nil {
		s.router.Get("/api/v1/stream", sse.NewHandler(s.opts.SSE, s.authenticateStream, s.logger).ServeHTTP)
	}
	if s.opts.Metrics != nil {
		s.router.Get("/metrics", s.opts.Metrics.Handler().ServeHTTP)
	}
}
