package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/search"
	"github.com/findshroom/findshroom-server/internal/service"
)

func (s *Server) registerMushroomRoutes() {
	register(s, huma.Operation{
		OperationID: "listMushrooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/mushrooms",
		Summary:     "List catalog",
		Description: "Returns the catalog ordered by name, optionally filtered by a substring of the name or scientific name",
		Tags:        []string{"Catalog"},
		Security:    bearerSecurity,
	}, s.handleListMushrooms)

	register(s, huma.Operation{
		OperationID: "searchMushrooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/mushrooms/search",
		Summary:     "Full-text catalog search",
		Description: "Fuzzy and prefix search across names, description, habitat and characteristics",
		Tags:        []string{"Catalog"},
		Security:    bearerSecurity,
	}, s.handleSearchMushrooms)

	register(s, huma.Operation{
		OperationID: "getMushroom",
		Method:      http.MethodGet,
		Path:        "/api/v1/mushrooms/{id}",
		Summary:     "Get catalog entry",
		Tags:        []string{"Catalog"},
		Security:    bearerSecurity,
	}, s.handleGetMushroom)

	register(s, huma.Operation{
		OperationID: "saveMushroom",
		Method:      http.MethodPost,
		Path:        "/api/v1/mushrooms",
		Summary:     "Save catalog entry",
		Description: "Inserts the entry when id is 0, otherwise updates it. Updates require admin role.",
		Tags:        []string{"Catalog"},
		Security:    bearerSecurity,
	}, s.handleSaveMushroom)

	register(s, huma.Operation{
		OperationID: "updateMushroom",
		Method:      http.MethodPut,
		Path:        "/api/v1/mushrooms/{id}",
		Summary:     "Update catalog entry",
		Description: "Replaces a catalog entry. Requires admin role.",
		Tags:        []string{"Catalog"},
		Security:    bearerSecurity,
	}, s.handleUpdateMushroom)

	register(s, huma.Operation{
		OperationID:   "deleteMushroom",
		Method:        http.MethodDelete,
		Path:          "/api/v1/mushrooms/{id}",
		Summary:       "Delete catalog entry",
		Description:   "Deletes a catalog entry; markers linked to it are unlinked. Requires admin role.",
		Tags:          []string{"Catalog"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteMushroom)
}

// === DTOs ===

// MushroomRequest is the editable content of a catalog entry.
type MushroomRequest struct {
	ID              int64  `json:"id,omitempty" doc:"Entry ID; 0 or absent inserts a new entry"`
	Name            string `json:"name" doc:"Common name"`
	ScientificName  string `json:"scientific_name,omitempty" doc:"Latin name"`
	Description     string `json:"description,omitempty" doc:"Description"`
	IsEdible        bool   `json:"is_edible,omitempty" doc:"Whether the species is edible"`
	ImageRef        string `json:"image_ref,omitempty" doc:"Photo reference returned by the photo upload"`
	Habitat         string `json:"habitat,omitempty" doc:"Where it grows"`
	Season          string `json:"season,omitempty" doc:"When it fruits"`
	Characteristics string `json:"characteristics,omitempty" doc:"Identifying features"`
}

func (r MushroomRequest) toService() service.SaveMushroomRequest {
	return service.SaveMushroomRequest{
		ID:              r.ID,
		Name:            r.Name,
		ScientificName:  r.ScientificName,
		Description:     r.Description,
		IsEdible:        r.IsEdible,
		ImageRef:        r.ImageRef,
		Habitat:         r.Habitat,
		Season:          r.Season,
		Characteristics: r.Characteristics,
	}
}

// ListMushroomsInput contains catalog list parameters.
type ListMushroomsInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Query         string `query:"q" doc:"Case-insensitive substring of the name or scientific name"`
}

// MushroomListResponse contains catalog entries.
type MushroomListResponse struct {
	Mushrooms []domain.Mushroom `json:"mushrooms" doc:"Catalog entries ordered by name"`
}

// MushroomListOutput wraps the list for Huma.
type MushroomListOutput struct {
	Body MushroomListResponse
}

// SearchMushroomsInput contains full-text search parameters.
type SearchMushroomsInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Query         string `query:"q" doc:"Search text"`
	Edible        string `query:"edible" enum:"true,false" doc:"Only edible (true) or inedible (false) species"`
	Sort          string `query:"sort" enum:"relevance,name" default:"relevance" doc:"Result order"`
	Limit         int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum hits"`
	Offset        int    `query:"offset" default:"0" minimum:"0" doc:"Hits to skip"`
}

// SearchMushroomsOutput wraps search results for Huma.
type SearchMushroomsOutput struct {
	Body *search.SearchResult
}

// MushroomIDInput identifies a catalog entry.
type MushroomIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Catalog entry ID"`
}

// SaveMushroomInput wraps a save request for Huma.
type SaveMushroomInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          MushroomRequest
}

// UpdateMushroomInput wraps an update request for Huma.
type UpdateMushroomInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Catalog entry ID"`
	Body          MushroomRequest
}

// MushroomOutput wraps a single entry for Huma.
type MushroomOutput struct {
	Body *domain.Mushroom
}

// === Handlers ===

func (s *Server) handleListMushrooms(ctx context.Context, input *ListMushroomsInput) (*MushroomListOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	mushrooms, err := s.services.Catalog.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	return &MushroomListOutput{Body: MushroomListResponse{Mushrooms: mushrooms}}, nil
}

func (s *Server) handleSearchMushrooms(ctx context.Context, input *SearchMushroomsInput) (*SearchMushroomsOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Limit = input.Limit
	params.Offset = input.Offset
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Edible != "" {
		edible := input.Edible == "true"
		params.EdibleOnly = &edible
	}

	result, err := s.services.Catalog.FullTextSearch(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchMushroomsOutput{Body: result}, nil
}

func (s *Server) handleGetMushroom(ctx context.Context, input *MushroomIDInput) (*MushroomOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	m, err := s.services.Catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &MushroomOutput{Body: m}, nil
}

func (s *Server) handleSaveMushroom(ctx context.Context, input *SaveMushroomInput) (*MushroomOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.services.Catalog.Save(ctx, user, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &MushroomOutput{Body: m}, nil
}

func (s *Server) handleUpdateMushroom(ctx context.Context, input *UpdateMushroomInput) (*MushroomOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	req := input.Body.toService()
	req.ID = input.ID
	m, err := s.services.Catalog.Save(ctx, user, req)
	if err != nil {
		return nil, err
	}
	return &MushroomOutput{Body: m}, nil
}

func (s *Server) handleDeleteMushroom(ctx context.Context, input *MushroomIDInput) (*struct{}, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Catalog.Delete(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
