package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/http/response"
	"github.com/findshroom/findshroom-server/internal/live"
	"github.com/findshroom/findshroom-server/internal/service"
	"github.com/findshroom/findshroom-server/internal/store"
)

func (s *Server) registerProfileRoutes() {
	register(s, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get profile",
		Description: "Returns the user's stats, level title, experience needed for the next level and subscription state",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)

	register(s, huma.Operation{
		OperationID: "getLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/leaderboard",
		Summary:     "Get leaderboard",
		Description: "Ranks users by level, then experience",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleGetLeaderboard)
}

// ProfileOutput wraps the profile for Huma.
type ProfileOutput struct {
	Body *service.Profile
}

// LeaderboardInput contains leaderboard query parameters.
type LeaderboardInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Limit         int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum number of entries"`
}

// LeaderboardResponse contains ranked users.
type LeaderboardResponse struct {
	Entries []service.LeaderboardEntry `json:"entries" doc:"Ranked users"`
}

// LeaderboardOutput wraps the leaderboard for Huma.
type LeaderboardOutput struct {
	Body LeaderboardResponse
}

func (s *Server) handleGetProfile(ctx context.Context, _ *AuthenticatedInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.services.Stats.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleGetLeaderboard(ctx context.Context, input *LeaderboardInput) (*LeaderboardOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	entries, err := s.services.Stats.Leaderboard(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &LeaderboardOutput{Body: LeaderboardResponse{Entries: entries}}, nil
}

// handleLeaderboardLive streams a fresh leaderboard as a server-sent event
// every time any user's stats change.
func (s *Server) handleLeaderboardLive(w http.ResponseWriter, r *http.Request) {
	if _, err := s.streamUser(r); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if s.opts.Hub == nil {
		response.NotFound(w, "live updates are disabled", s.logger)
		return
	}

	limit := DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, domainerrors.CodeValidation, "limit must be a positive integer", s.logger)
			return
		}
		limit = n
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	load := func(ctx context.Context) ([]service.LeaderboardEntry, error) {
		return s.services.Stats.Leaderboard(ctx, limit)
	}
	for entries := range live.Watch(r.Context(), s.opts.Hub, store.CollectionUserStats, load, s.logger) {
		data, err := json.Marshal(LeaderboardResponse{Entries: entries})
		if err != nil {
			s.logger.Error("Failed to marshal leaderboard", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: leaderboard\ndata: %s\n\n", data); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
