package api

import (
	"net/http"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/sse"
)

// streamUser resolves the user of a streaming request. EventSource clients
// cannot set headers, so the token may also arrive as ?token=.
func (s *Server) streamUser(r *http.Request) (*domain.User, error) {
	if user, err := RequireUser(r.Context()); err == nil {
		return user, nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, domainerrors.Unauthorized("Authentication required")
	}
	user, _, err := s.services.Auth.VerifyAccessToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticateStream builds the push-stream viewer. Subscription status is
// captured once, at connect time.
func (s *Server) authenticateStream(r *http.Request) (sse.Viewer, error) {
	user, err := s.streamUser(r)
	if err != nil {
		return sse.Viewer{}, err
	}
	return sse.Viewer{
		UserID:     user.ID,
		IsAdmin:    user.IsAdmin,
		Subscribed: s.services.Subscription.HasActiveSubscription(r.Context(), user.ID),
	}, nil
}
