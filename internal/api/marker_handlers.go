package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/service"
)

func (s *Server) registerMarkerRoutes() {
	register(s, huma.Operation{
		OperationID: "listMarkers",
		Method:      http.MethodGet,
		Path:        "/api/v1/markers",
		Summary:     "List visible markers",
		Description: "Returns every marker for subscribers and only public markers for everyone else, newest first",
		Tags:        []string{"Markers"},
		Security:    bearerSecurity,
	}, s.handleListMarkers)

	register(s, huma.Operation{
		OperationID: "listMyMarkers",
		Method:      http.MethodGet,
		Path:        "/api/v1/markers/mine",
		Summary:     "List own markers",
		Tags:        []string{"Markers"},
		Security:    bearerSecurity,
	}, s.handleListMyMarkers)

	register(s, huma.Operation{
		OperationID:   "createMarker",
		Method:        http.MethodPost,
		Path:          "/api/v1/markers",
		Summary:       "Create marker",
		Description:   "Pins a find on the map. Private markers require an active subscription; without one the marker is stored as public.",
		Tags:          []string{"Markers"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateMarker)

	register(s, huma.Operation{
		OperationID: "getMarker",
		Method:      http.MethodGet,
		Path:        "/api/v1/markers/{id}",
		Summary:     "Get marker",
		Tags:        []string{"Markers"},
		Security:    bearerSecurity,
	}, s.handleGetMarker)

	register(s, huma.Operation{
		OperationID: "updateMarker",
		Method:      http.MethodPatch,
		Path:        "/api/v1/markers/{id}",
		Summary:     "Update marker",
		Description: "Changes the title, note, photo, linked mushroom or privacy of an own marker",
		Tags:        []string{"Markers"},
		Security:    bearerSecurity,
	}, s.handleUpdateMarker)

	register(s, huma.Operation{
		OperationID:   "deleteMarker",
		Method:        http.MethodDelete,
		Path:          "/api/v1/markers/{id}",
		Summary:       "Delete marker",
		Tags:          []string{"Markers"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteMarker)
}

// === DTOs ===

// CreateMarkerRequest is the request body for a new marker.
type CreateMarkerRequest struct {
	Latitude   float64    `json:"latitude" doc:"Latitude in degrees"`
	Longitude  float64    `json:"longitude" doc:"Longitude in degrees"`
	PhotoRef   string     `json:"photo_ref,omitempty" doc:"Photo reference returned by the photo upload"`
	Title      string     `json:"title,omitempty" doc:"Short title"`
	Note       string     `json:"note,omitempty" doc:"Free-form note"`
	MushroomID *int64     `json:"mushroom_id,omitempty" doc:"Linked catalog entry"`
	IsPrivate  bool       `json:"is_private,omitempty" doc:"Hide from users without a subscription"`
	Timestamp  *time.Time `json:"timestamp,omitempty" doc:"When the find was made; defaults to now"`
}

// CreateMarkerInput wraps the create request for Huma.
type CreateMarkerInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          CreateMarkerRequest
}

// UpdateMarkerRequest is the request body for a marker update. Absent fields
// are left unchanged; mushroom_id 0 unlinks the catalog entry.
type UpdateMarkerRequest struct {
	Title      *string `json:"title,omitempty" doc:"Short title"`
	Note       *string `json:"note,omitempty" doc:"Free-form note"`
	PhotoRef   *string `json:"photo_ref,omitempty" doc:"Photo reference"`
	MushroomID *int64  `json:"mushroom_id,omitempty" doc:"Linked catalog entry, 0 to unlink"`
	IsPrivate  *bool   `json:"is_private,omitempty" doc:"Hide from users without a subscription"`
}

// UpdateMarkerInput wraps the update request for Huma.
type UpdateMarkerInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Marker ID"`
	Body          UpdateMarkerRequest
}

// MarkerIDInput identifies a marker.
type MarkerIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Marker ID"`
}

// MarkerListResponse contains markers.
type MarkerListResponse struct {
	Markers []domain.MapMarker `json:"markers" doc:"Markers, newest first"`
}

// MarkerListOutput wraps a marker list for Huma.
type MarkerListOutput struct {
	Body MarkerListResponse
}

// MarkerOutput wraps a single marker for Huma.
type MarkerOutput struct {
	Body *domain.MapMarker
}

// === Handlers ===

func (s *Server) handleListMarkers(ctx context.Context, _ *AuthenticatedInput) (*MarkerListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	markers, err := s.services.Marker.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MarkerListOutput{Body: MarkerListResponse{Markers: markers}}, nil
}

func (s *Server) handleListMyMarkers(ctx context.Context, _ *AuthenticatedInput) (*MarkerListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	markers, err := s.services.Marker.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MarkerListOutput{Body: MarkerListResponse{Markers: markers}}, nil
}

func (s *Server) handleCreateMarker(ctx context.Context, input *CreateMarkerInput) (*MarkerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	b := input.Body
	marker, err := s.services.Marker.Create(ctx, userID, service.CreateMarkerRequest{
		Latitude:   b.Latitude,
		Longitude:  b.Longitude,
		PhotoRef:   b.PhotoRef,
		Title:      b.Title,
		Note:       b.Note,
		MushroomID: b.MushroomID,
		IsPrivate:  b.IsPrivate,
		Timestamp:  b.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	return &MarkerOutput{Body: marker}, nil
}

func (s *Server) handleGetMarker(ctx context.Context, input *MarkerIDInput) (*MarkerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	marker, err := s.services.Marker.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &MarkerOutput{Body: marker}, nil
}

func (s *Server) handleUpdateMarker(ctx context.Context, input *UpdateMarkerInput) (*MarkerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	b := input.Body
	marker, err := s.services.Marker.Update(ctx, userID, input.ID, service.UpdateMarkerRequest{
		Title:      b.Title,
		Note:       b.Note,
		PhotoRef:   b.PhotoRef,
		MushroomID: b.MushroomID,
		IsPrivate:  b.IsPrivate,
	})
	if err != nil {
		return nil, err
	}
	return &MarkerOutput{Body: marker}, nil
}

func (s *Server) handleDeleteMarker(ctx context.Context, input *MarkerIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Marker.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
