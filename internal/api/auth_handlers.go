package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	limit := huma.Middlewares{s.rateLimitByIP(s.opts.AuthLimiter)}

	register(s, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a user account and opens a session",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   limit,
	}, s.handleRegister)

	register(s, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token",
		Tags:        []string{"Authentication"},
		Middlewares: limit,
	}, s.handleLogin)

	register(s, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Ends the session behind the presented token",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleLogout)

	register(s, huma.Operation{
		OperationID: "logoutAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout-all",
		Summary:     "Logout everywhere",
		Description: "Ends every session of the current user",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleLogoutAll)

	register(s, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" doc:"Unique user name (3-64 characters)"`
	Password string `json:"password" doc:"Password (at least 4 characters)"`
	Email    string `json:"email,omitempty" doc:"Optional email address"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" doc:"User name"`
	Password string `json:"password" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        int64     `json:"id" doc:"User ID"`
	Username  string    `json:"username" doc:"User name"`
	Email     string    `json:"email,omitempty" doc:"Email address"`
	IsAdmin   bool      `json:"is_admin" doc:"Whether the user is an administrator"`
	CreatedAt time.Time `json:"created_at" doc:"Registration time"`
}

// AuthResponse contains the token issued on login or registration.
type AuthResponse struct {
	AccessToken string       `json:"access_token" doc:"PASETO access token"`
	SessionID   string       `json:"session_id" doc:"Session ID"`
	ExpiresAt   time.Time    `json:"expires_at" doc:"Token expiry"`
	User        UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// LogoutResponse reports how many sessions ended.
type LogoutResponse struct {
	SessionsEnded int `json:"sessions_ended" doc:"Number of sessions that were ended"`
}

// LogoutOutput wraps the logout response for Huma.
type LogoutOutput struct {
	Body LogoutResponse
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

func toAuthOutput(resp *service.AuthResponse) *AuthOutput {
	return &AuthOutput{
		Body: AuthResponse{
			AccessToken: resp.AccessToken,
			SessionID:   resp.SessionID,
			ExpiresAt:   resp.ExpiresAt,
			User:        toUserResponse(resp.User),
		},
	}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
		Email:    input.Body.Email,
	})
	if err != nil {
		return nil, err
	}
	return toAuthOutput(resp), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return toAuthOutput(resp), nil
}

func (s *Server) handleLogout(ctx context.Context, _ *AuthenticatedInput) (*LogoutOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.services.Auth.Logout(ctx, getSessionID(ctx)); err != nil {
		return nil, err
	}
	return &LogoutOutput{Body: LogoutResponse{SessionsEnded: 1}}, nil
}

func (s *Server) handleLogoutAll(ctx context.Context, _ *AuthenticatedInput) (*LogoutOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.services.Auth.LogoutAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LogoutOutput{Body: LogoutResponse{SessionsEnded: n}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *AuthenticatedInput) (*UserOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}
