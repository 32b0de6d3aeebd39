package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/session"
	"github.com/findshroom/findshroom-server/internal/store"
)

// SessionStore persists login sessions.
type SessionStore interface {
	Put(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID int64) (int, error)
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	store         store.Store
	sessions      SessionStore
	tokens        *auth.TokenService
	stats         *StatsService
	adminUsername string
	logger        *slog.Logger
	now           func() time.Time
}

// NewAuthService creates a new authentication service. When adminUsername is
// empty the first registered user becomes admin; otherwise the user with that
// name does.
func NewAuthService(
	s store.Store,
	sessions SessionStore,
	tokens *auth.TokenService,
	stats *StatsService,
	adminUsername string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:         s,
		sessions:      sessions,
		tokens:        tokens,
		stats:         stats,
		adminUsername: strings.TrimSpace(adminUsername),
		logger:        orDiscard(logger),
		now:           time.Now,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required,min=4,max=1024"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	SessionID   string       `json:"session_id"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"user"`
}

// Register creates an account, its stats record and a session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	isAdmin, err := s.shouldBeAdmin(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Email:        req.Email,
		IsAdmin:      isAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a user with this name already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.stats.GetOrCreate(ctx, user.ID); err != nil {
		// Stats are created lazily on first read anyway.
		s.logger.Warn("failed to create stats for new user", "user_id", user.ID, "error", err)
	}

	resp, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"username", user.Username,
		"is_admin", user.IsAdmin,
	)
	return resp, nil
}

func (s *AuthService) shouldBeAdmin(ctx context.Context, username string) (bool, error) {
	if s.adminUsername != "" {
		return username == s.adminUsername, nil
	}
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n == 0, nil
}

// Login authenticates a user and opens a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the username exists
			return nil, domainerrors.InvalidCredentials("invalid username or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	// The configured admin may have registered before the setting existed.
	if !user.IsAdmin && s.adminUsername != "" && user.Username == s.adminUsername {
		user.IsAdmin = true
		if err := s.store.UpdateUser(ctx, user); err != nil {
			s.logger.Warn("failed to promote configured admin", "user_id", user.ID, "error", err)
			user.IsAdmin = false
		}
	}

	resp, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return resp, nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*AuthResponse, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	sess := &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthResponse{
		AccessToken: token,
		SessionID:   sessionID,
		ExpiresAt:   sess.ExpiresAt,
		User:        user,
	}, nil
}

// Logout deletes a session. Unknown sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll deletes every session of a user.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (int, error) {
	n, err := s.sessions.DeleteForUser(ctx, userID)
	if err != nil {
		return n, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}

// VerifyAccessToken validates a token, checks that its session is still open
// and returns the user it belongs to. An expired token or session is a
// TOKEN_EXPIRED error; anything else that fails is UNAUTHORIZED.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, domainerrors.TokenExpired("access token has expired, please log in again")
		}
		return nil, nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			return nil, nil, domainerrors.TokenExpired("session has expired, please log in again")
		case errors.Is(err, session.ErrNotFound):
			return nil, nil, domainerrors.Unauthorized("session has ended")
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if sess.UserID != claims.UserID {
		return nil, nil, domainerrors.Unauthorized("invalid token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// CurrentUser returns the user with the given id.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user")
	}
	return user, nil
}
