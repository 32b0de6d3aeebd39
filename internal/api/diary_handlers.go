package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/service"
)

func (s *Server) registerDiaryRoutes() {
	register(s, huma.Operation{
		OperationID: "listDiary",
		Method:      http.MethodGet,
		Path:        "/api/v1/diary",
		Summary:     "List diary entries",
		Description: "Returns the user's foraging diary, newest first. Requires an active subscription.",
		Tags:        []string{"Diary"},
		Security:    bearerSecurity,
	}, s.handleListDiary)

	register(s, huma.Operation{
		OperationID:   "addDiaryEntry",
		Method:        http.MethodPost,
		Path:          "/api/v1/diary",
		Summary:       "Add diary entry",
		Description:   "Records a foraging trip. Each collected mushroom awards 10 experience.",
		Tags:          []string{"Diary"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddDiaryEntry)

	register(s, huma.Operation{
		OperationID: "updateDiaryEntry",
		Method:      http.MethodPatch,
		Path:        "/api/v1/diary/{id}",
		Summary:     "Update diary entry",
		Tags:        []string{"Diary"},
		Security:    bearerSecurity,
	}, s.handleUpdateDiaryEntry)

	register(s, huma.Operation{
		OperationID:   "deleteDiaryEntry",
		Method:        http.MethodDelete,
		Path:          "/api/v1/diary/{id}",
		Summary:       "Delete diary entry",
		Tags:          []string{"Diary"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteDiaryEntry)
}

// === DTOs ===

// AddDiaryEntryRequest is the request body for a new diary entry.
type AddDiaryEntryRequest struct {
	Note               string `json:"note,omitempty" doc:"Free-form note"`
	MushroomsCollected int    `json:"mushrooms_collected,omitempty" doc:"Number of mushrooms collected"`
}

// AddDiaryEntryInput wraps the add request for Huma.
type AddDiaryEntryInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          AddDiaryEntryRequest
}

// UpdateDiaryEntryRequest is the request body for an entry update.
type UpdateDiaryEntryRequest struct {
	Note               *string `json:"note,omitempty" doc:"Free-form note"`
	MushroomsCollected *int    `json:"mushrooms_collected,omitempty" doc:"Number of mushrooms collected"`
}

// UpdateDiaryEntryInput wraps the update request for Huma.
type UpdateDiaryEntryInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Diary entry ID"`
	Body          UpdateDiaryEntryRequest
}

// DiaryEntryIDInput identifies a diary entry.
type DiaryEntryIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Diary entry ID"`
}

// DiaryListResponse contains diary entries.
type DiaryListResponse struct {
	Entries []domain.DiaryEntry `json:"entries" doc:"Diary entries, newest first"`
}

// DiaryListOutput wraps the diary for Huma.
type DiaryListOutput struct {
	Body DiaryListResponse
}

// DiaryResultOutput wraps an added entry and the resulting stats.
type DiaryResultOutput struct {
	Body *service.DiaryResult
}

// DiaryEntryOutput wraps a single entry for Huma.
type DiaryEntryOutput struct {
	Body *domain.DiaryEntry
}

// === Handlers ===

func (s *Server) handleListDiary(ctx context.Context, _ *AuthenticatedInput) (*DiaryListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.services.Diary.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DiaryListOutput{Body: DiaryListResponse{Entries: entries}}, nil
}

func (s *Server) handleAddDiaryEntry(ctx context.Context, input *AddDiaryEntryInput) (*DiaryResultOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.services.Diary.AddEntry(ctx, userID, service.AddDiaryEntryRequest{
		Note:               input.Body.Note,
		MushroomsCollected: input.Body.MushroomsCollected,
	})
	if err != nil {
		return nil, err
	}
	return &DiaryResultOutput{Body: result}, nil
}

func (s *Server) handleUpdateDiaryEntry(ctx context.Context, input *UpdateDiaryEntryInput) (*DiaryEntryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.services.Diary.Update(ctx, userID, input.ID, service.UpdateDiaryEntryRequest{
		Note:               input.Body.Note,
		MushroomsCollected: input.Body.MushroomsCollected,
	})
	if err != nil {
		return nil, err
	}
	return &DiaryEntryOutput{Body: entry}, nil
}

func (s *Server) handleDeleteDiaryEntry(ctx context.Context, input *DiaryEntryIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Diary.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
