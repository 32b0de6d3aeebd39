package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userKey      ctxKey = "user"
	sessionIDKey ctxKey = "sessionID"
	expiredKey   ctxKey = "tokenExpired"
)

// AuthenticatedInput documents the bearer header on protected operations.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
}

// bearerSecurity marks an operation as requiring a bearer token in OpenAPI.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (int64, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// RequireUser returns the authenticated user resolved by authMiddleware.
// A request that presented an expired token gets TOKEN_EXPIRED so clients
// know to log in again.
func RequireUser(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(userKey).(*domain.User)
	if !ok || user == nil {
		if expired, ok := ctx.Value(expiredKey).(error); ok {
			return nil, expired
		}
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// RequireAdmin validates the user is authenticated and has admin role.
func RequireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domainerrors.Forbidden("Admin access required")
	}
	return user, nil
}

// getSessionID returns the session behind the request's token, if any.
func getSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

func withUser(ctx context.Context, user *domain.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the user and session in context. If no token is present or it is invalid,
// the request continues anonymously and handlers use RequireUser to reject it.
// An expired token is remembered so the rejection can say so.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, domainerrors.ErrTokenExpired) {
					r = r.WithContext(context.WithValue(r.Context(), expiredKey, err))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, claims.SessionID)))
		})
	}
}
