package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAdminRoutes() {
	register(s, huma.Operation{
		OperationID: "adminListMarkers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/markers",
		Summary:     "List all markers",
		Description: "Returns every marker, private ones included",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminListMarkers)

	register(s, huma.Operation{
		OperationID:   "adminDeleteMarker",
		Method:        http.MethodDelete,
		Path:          "/api/v1/admin/markers/{id}",
		Summary:       "Delete any marker",
		Tags:          []string{"Admin"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleAdminDeleteMarker)

	register(s, huma.Operation{
		OperationID: "adminListUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users",
		Summary:     "List users",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminListUsers)

	register(s, huma.Operation{
		OperationID: "adminUpdateUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Grant or revoke admin rights",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminUpdateUser)

	register(s, huma.Operation{
		OperationID:   "adminDeleteUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/admin/users/{id}",
		Summary:       "Delete user",
		Description:   "Deletes an account and ends its sessions. Its markers stay on the map without an owner.",
		Tags:          []string{"Admin"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleAdminDeleteUser)

	register(s, huma.Operation{
		OperationID:   "adminIssueSubscriptionKeys",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/subscription-keys",
		Summary:       "Issue subscription keys",
		Description:   "Generates fresh activation keys to hand out",
		Tags:          []string{"Admin"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminIssueKeys)
}

// === DTOs ===

// AdminIDInput identifies a record by path ID.
type AdminIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Record ID"`
}

// AdminUpdateUserInput changes a user's admin flag.
type AdminUpdateUserInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"User ID"`
	Body          struct {
		IsAdmin bool `json:"is_admin" doc:"Whether the user is an administrator"`
	}
}

// UserListResponse contains accounts.
type UserListResponse struct {
	Users []UserResponse `json:"users" doc:"Accounts in registration order"`
}

// UserListOutput wraps the user list for Huma.
type UserListOutput struct {
	Body UserListResponse
}

// IssueKeysInput asks for a number of subscription keys.
type IssueKeysInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          struct {
		Count int `json:"count,omitempty" minimum:"1" maximum:"100" default:"1" doc:"Number of keys to generate"`
	} `required:"false"`
}

// IssueKeysResponse contains generated keys.
type IssueKeysResponse struct {
	Keys []string `json:"keys" doc:"Unused subscription keys"`
}

// IssueKeysOutput wraps generated keys for Huma.
type IssueKeysOutput struct {
	Body IssueKeysResponse
}

// === Handlers ===

func (s *Server) handleAdminListMarkers(ctx context.Context, _ *AuthenticatedInput) (*MarkerListOutput, error) {
	actor, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	markers, err := s.services.Admin.ListAllMarkers(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &MarkerListOutput{Body: MarkerListResponse{Markers: markers}}, nil
}

func (s *Server) handleAdminDeleteMarker(ctx context.Context, input *AdminIDInput) (*struct{}, error) {
	actor, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Admin.DeleteMarker(ctx, actor, input.ID)
}

func (s *Server) handleAdminListUsers(ctx context.Context, _ *AuthenticatedInput) (*UserListOutput, error) {
	actor, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.services.Admin.ListUsers(ctx, actor)
	if err != nil {
		return nil, err
	}
	resp := UserListResponse{Users: make([]UserResponse, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, toUserResponse(&users[i]))
	}
	return &UserListOutput{Body: resp}, nil
}

func (s *Server) handleAdminUpdateUser(ctx context.Context, input *AdminUpdateUserInput) (*UserOutput, error) {
	actor, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Admin.SetAdmin(ctx, actor, input.ID, input.Body.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleAdminDeleteUser(ctx context.Context, input *AdminIDInput) (*struct{}, error) {
	actor, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Admin.DeleteUser(ctx, actor, input.ID)
}

func (s *Server) handleAdminIssueKeys(ctx context.Context, input *IssueKeysInput) (*IssueKeysOutput, error) {
	actor, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	count := max(input.Body.Count, 1)
	keys := make([]string, 0, count)
	for range count {
		key, err := s.services.Admin.IssueSubscriptionKey(ctx, actor)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return &IssueKeysOutput{Body: IssueKeysResponse{Keys: keys}}, nil
}
