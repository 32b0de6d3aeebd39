package service

import (
	"context"
	"log/slog"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/store"
)

// AdminService exposes moderation operations. Every method checks that the
// actor is an admin.
type AdminService struct {
	store    store.Store
	sessions SessionStore
	logger   *slog.Logger
}

// NewAdminService creates an admin service.
func NewAdminService(s store.Store, sessions SessionStore, logger *slog.Logger) *AdminService {
	return &AdminService{store: s, sessions: sessions, logger: orDiscard(logger)}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || !actor.IsAdmin {
		return domainerrors.Forbidden("admin access required")
	}
	return nil
}

// ListAllMarkers returns every marker, private ones included.
func (s *AdminService) ListAllMarkers(ctx context.Context, actor *domain.User) ([]domain.MapMarker, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	markers, err := s.store.ListMarkers(ctx)
	if err != nil {
		return nil, storeError(err, "list markers")
	}
	return markers, nil
}

// DeleteMarker removes any marker.
func (s *AdminService) DeleteMarker(ctx context.Context, actor *domain.User, markerID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteMarker(ctx, markerID); err != nil {
		return storeError(err, "delete marker")
	}
	s.logger.Info("admin deleted marker", "marker_id", markerID, "admin_id", actor.ID)
	return nil
}

// ListUsers returns every account.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "list users")
	}
	return users, nil
}

// SetAdmin grants or revokes admin rights. Admins cannot demote themselves.
func (s *AdminService) SetAdmin(ctx context.Context, actor *domain.User, userID int64, isAdmin bool) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == userID && !isAdmin {
		return nil, domainerrors.Conflict("admins cannot remove their own admin rights")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user")
	}
	user.IsAdmin = isAdmin
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, "update user")
	}
	s.logger.Info("admin rights changed", "user_id", userID, "is_admin", isAdmin, "admin_id", actor.ID)
	return user, nil
}

// DeleteUser removes an account and ends its sessions. Markers it created
// stay on the map without an owner.
func (s *AdminService) DeleteUser(ctx context.Context, actor *domain.User, userID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == userID {
		return domainerrors.Conflict("admins cannot delete their own account")
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return storeError(err, "delete user")
	}
	if _, err := s.sessions.DeleteForUser(ctx, userID); err != nil {
		s.logger.Warn("user deleted but sessions remain", "user_id", userID, "error", err)
	}
	s.logger.Info("admin deleted user", "user_id", userID, "admin_id", actor.ID)
	return nil
}

// IssueSubscriptionKey generates a fresh activation key. Keys are not
// stored; any key becomes used the first time it is activated.
func (s *AdminService) IssueSubscriptionKey(_ context.Context, actor *domain.User) (string, error) {
	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	return id.SubscriptionKey()
}
