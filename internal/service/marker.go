package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/store"
)

// MarkerService manages map markers and applies the privacy rules.
type MarkerService struct {
	store         store.Store
	subscriptions *SubscriptionService
	stats         *StatsService
	logger        *slog.Logger
}

// NewMarkerService creates a marker service.
func NewMarkerService(s store.Store, subscriptions *SubscriptionService, stats *StatsService, logger *slog.Logger) *MarkerService {
	return &MarkerService{
		store:         s,
		subscriptions: subscriptions,
		stats:         stats,
		logger:        orDiscard(logger),
	}
}

// CreateMarkerRequest describes a new marker.
type CreateMarkerRequest struct {
	Latitude   float64    `json:"latitude" validate:"latitude"`
	Longitude  float64    `json:"longitude" validate:"longitude"`
	PhotoRef   string     `json:"photo_ref,omitempty"`
	Title      string     `json:"title,omitempty" validate:"max=200"`
	Note       string     `json:"note,omitempty" validate:"max=2000"`
	MushroomID *int64     `json:"mushroom_id,omitempty"`
	IsPrivate  bool       `json:"is_private"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// UpdateMarkerRequest changes the editable fields of a marker. Nil fields
// are left alone. Position and time are fixed once created.
type UpdateMarkerRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Note       *string `json:"note,omitempty" validate:"omitempty,max=2000"`
	PhotoRef   *string `json:"photo_ref,omitempty"`
	MushroomID *int64  `json:"mushroom_id,omitempty"`
	IsPrivate  *bool   `json:"is_private,omitempty"`
}

// Create stores a marker for userID. Only subscribers keep the private flag.
// The stats counter is updated afterwards as a separate write; if that fails
// the marker still exists and the failure is only logged.
func (s *MarkerService) Create(ctx context.Context, userID int64, req CreateMarkerRequest) (*domain.MapMarker, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := validatePhotoRef(req.PhotoRef); err != nil {
		return nil, err
	}
	if err := s.checkMushroom(ctx, req.MushroomID); err != nil {
		return nil, err
	}

	subscribed := s.subscriptions.HasActiveSubscription(ctx, userID)
	owner := userID
	marker := &domain.MapMarker{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		PhotoRef:   req.PhotoRef,
		Title:      req.Title,
		Note:       req.Note,
		UserID:     &owner,
		MushroomID: req.MushroomID,
		IsPrivate:  domain.EffectivePrivacy(req.IsPrivate, subscribed),
	}
	if req.Timestamp != nil {
		marker.Timestamp = req.Timestamp.UTC()
	}

	if err := s.store.CreateMarker(ctx, marker); err != nil {
		return nil, storeError(err, "create marker")
	}

	if _, err := s.stats.IncrementMarkersCreated(ctx, userID); err != nil {
		s.logger.Warn("marker created but stats update failed",
			"user_id", userID,
			"marker_id", marker.ID,
			"error", err,
		)
	}

	if req.IsPrivate && !marker.IsPrivate {
		s.logger.Debug("private flag dropped for non-subscriber", "user_id", userID, "marker_id", marker.ID)
	}
	return marker, nil
}

// ListVisible returns the markers viewerID may see, newest first.
func (s *MarkerService) ListVisible(ctx context.Context, viewerID int64) ([]domain.MapMarker, error) {
	all, err := s.store.ListMarkers(ctx)
	if err != nil {
		return nil, storeError(err, "list markers")
	}
	return domain.VisibleMarkers(all, s.subscriptions.HasActiveSubscription(ctx, viewerID)), nil
}

// ListMine returns every marker created by userID, private ones included.
func (s *MarkerService) ListMine(ctx context.Context, userID int64) ([]domain.MapMarker, error) {
	markers, err := s.store.ListMarkersByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "list markers")
	}
	return markers, nil
}

// Get returns a marker. A private marker looks absent to anyone but its
// owner and subscribers.
func (s *MarkerService) Get(ctx context.Context, viewerID, markerID int64) (*domain.MapMarker, error) {
	marker, err := s.store.GetMarker(ctx, markerID)
	if err != nil {
		return nil, storeError(err, "get marker")
	}
	if marker.OwnedBy(viewerID) {
		return marker, nil
	}
	if !marker.VisibleTo(s.subscriptions.HasActiveSubscription(ctx, viewerID)) {
		return nil, domainerrors.NotFoundf("marker %d not found", markerID)
	}
	return marker, nil
}

// Update edits a marker owned by userID.
func (s *MarkerService) Update(ctx context.Context, userID, markerID int64, req UpdateMarkerRequest) (*domain.MapMarker, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	marker, err := s.owned(ctx, userID, markerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		marker.Title = strings.TrimSpace(*req.Title)
	}
	if req.Note != nil {
		marker.Note = *req.Note
	}
	if req.PhotoRef != nil {
		if err := validatePhotoRef(*req.PhotoRef); err != nil {
			return nil, err
		}
		marker.PhotoRef = *req.PhotoRef
	}
	if req.MushroomID != nil {
		if *req.MushroomID == 0 {
			marker.MushroomID = nil
		} else {
			if err := s.checkMushroom(ctx, req.MushroomID); err != nil {
				return nil, err
			}
			marker.MushroomID = req.MushroomID
		}
	}
	if req.IsPrivate != nil {
		if *req.IsPrivate && !marker.IsPrivate {
			marker.IsPrivate = domain.EffectivePrivacy(true, s.subscriptions.HasActiveSubscription(ctx, userID))
		} else {
			marker.IsPrivate = *req.IsPrivate
		}
	}

	if err := s.store.UpdateMarker(ctx, marker); err != nil {
		return nil, storeError(err, "update marker")
	}
	return marker, nil
}

// Delete removes a marker owned by userID.
func (s *MarkerService) Delete(ctx context.Context, userID, markerID int64) error {
	if _, err := s.owned(ctx, userID, markerID); err != nil {
		return err
	}
	if err := s.store.DeleteMarker(ctx, markerID); err != nil {
		return storeError(err, "delete marker")
	}
	return nil
}

func (s *MarkerService) owned(ctx context.Context, userID, markerID int64) (*domain.MapMarker, error) {
	marker, err := s.store.GetMarker(ctx, markerID)
	if err != nil {
		return nil, storeError(err, "get marker")
	}
	if !marker.OwnedBy(userID) {
		return nil, domainerrors.Forbidden("only the creator can change this marker")
	}
	return marker, nil
}

func (s *MarkerService) checkMushroom(ctx context.Context, mushroomID *int64) error {
	if mushroomID == nil {
		return nil
	}
	if _, err := s.store.GetMushroom(ctx, *mushroomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.Validationf("mushroom %d does not exist", *mushroomID)
		}
		return storeError(err, "get mushroom")
	}
	return nil
}

func validatePhotoRef(ref string) error {
	if ref != "" && !id.IsPhotoRef(ref) {
		return domainerrors.Validation("photo_ref is not a valid photo reference")
	}
	return nil
}
