package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Version    string                     `json:"version" doc:"Server version"`
	Recognizer string                     `json:"recognizer,omitempty" doc:"Active recognition backend"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
		"sse":      s.checkSSEManager(),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	resp := HealthResponse{
		Status:     overall,
		Version:    s.opts.Version,
		Components: components,
	}
	if s.services.Recognition != nil {
		resp.Recognizer = s.services.Recognition.Backend()
	}
	return &HealthOutput{Body: resp}, nil
}

// checkDatabase verifies SQLite is reachable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.opts.Database == nil {
		return ComponentHealth{Status: "degraded", Message: "no database check configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.opts.Database.Ping(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}

// checkSearchIndex reports whether catalog search uses the full-text index.
func (s *Server) checkSearchIndex() ComponentHealth {
	if !s.opts.SearchEnabled {
		return ComponentHealth{Status: "degraded", Message: "full-text index disabled, using SQL search"}
	}
	return ComponentHealth{Status: "healthy"}
}

// checkSSEManager reports connected stream clients.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.opts.SSE == nil {
		return ComponentHealth{Status: "degraded", Message: "push stream disabled"}
	}
	return ComponentHealth{
		Status:  "healthy",
		Message: strconv.Itoa(s.opts.SSE.ClientCount()) + " clients connected",
	}
}
