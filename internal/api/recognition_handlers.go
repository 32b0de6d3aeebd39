package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/http/response"
	"github.com/findshroom/findshroom-server/internal/recognition"
	"github.com/findshroom/findshroom-server/internal/service"
)

func (s *Server) registerRecognitionRoutes() {
	register(s, huma.Operation{
		OperationID:   "saveRecognized",
		Method:        http.MethodPost,
		Path:          "/api/v1/recognize/save",
		Summary:       "Save recognition result",
		Description:   "Stores a recognition result as a new catalog entry",
		Tags:          []string{"Recognition"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleSaveRecognized)
}

// RecognitionResponse is the outcome of a recognition request. Degraded
// results carry the backend's raw text as the description.
type RecognitionResponse struct {
	Attributes recognition.Attributes `json:"attributes"`
	Degraded   bool                   `json:"degraded"`
	Backend    string                 `json:"backend"`
}

// SaveRecognizedRequest is the request body for saving a recognition result.
type SaveRecognizedRequest struct {
	Name            string `json:"name" doc:"Common name"`
	ScientificName  string `json:"scientific_name,omitempty" doc:"Latin name"`
	IsEdible        bool   `json:"is_edible,omitempty" doc:"Whether the species is edible"`
	Description     string `json:"description,omitempty" doc:"Description"`
	Habitat         string `json:"habitat,omitempty" doc:"Where it grows"`
	Season          string `json:"season,omitempty" doc:"When it fruits"`
	Characteristics string `json:"characteristics,omitempty" doc:"Identifying features"`
	ImageRef        string `json:"image_ref,omitempty" doc:"Photo reference returned by the photo upload"`
}

// SaveRecognizedInput wraps the save request for Huma.
type SaveRecognizedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          SaveRecognizedRequest
}

// handleRecognize identifies the mushroom in an uploaded photo. The photo is
// sent as multipart field "image" or as a raw image body.
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := GetUserID(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	image, err := readUpload(w, r, "image")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := s.services.Recognition.Recognize(ctx, userID, image)
	if err != nil {
		s.logger.Warn("Recognition failed", "user_id", userID, "error", err)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, RecognitionResponse{
		Attributes: result.Attributes,
		Degraded:   result.Degraded,
		Backend:    result.Backend,
	}, s.logger)
}

func (s *Server) handleSaveRecognized(ctx context.Context, input *SaveRecognizedInput) (*MushroomOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	b := input.Body
	m, err := s.services.Recognition.SaveRecognized(ctx, user, service.SaveRecognizedRequest{
		Attributes: recognition.Attributes{
			Name:            b.Name,
			ScientificName:  b.ScientificName,
			IsEdible:        b.IsEdible,
			Description:     b.Description,
			Habitat:         b.Habitat,
			Season:          b.Season,
			Characteristics: b.Characteristics,
		},
		ImageRef: b.ImageRef,
	})
	if err != nil {
		return nil, err
	}
	return &MushroomOutput{Body: m}, nil
}
