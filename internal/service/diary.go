package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/store"
)

// DiaryService manages foraging diary entries. The diary is a premium
// feature; every operation requires an active subscription.
type DiaryService struct {
	store         store.Store
	subscriptions *SubscriptionService
	stats         *StatsService
	logger        *slog.Logger
	now           func() time.Time
}

// NewDiaryService creates a diary service.
func NewDiaryService(s store.Store, subscriptions *SubscriptionService, stats *StatsService, logger *slog.Logger) *DiaryService {
	return &DiaryService{
		store:         s,
		subscriptions: subscriptions,
		stats:         stats,
		logger:        orDiscard(logger),
		now:           time.Now,
	}
}

// AddDiaryEntryRequest describes a new entry.
type AddDiaryEntryRequest struct {
	Note               string `json:"note" validate:"max=5000"`
	MushroomsCollected int    `json:"mushrooms_collected" validate:"min=0,max=10000"`
}

// UpdateDiaryEntryRequest edits an entry. Nil fields are left alone.
type UpdateDiaryEntryRequest struct {
	Note               *string `json:"note,omitempty" validate:"omitempty,max=5000"`
	MushroomsCollected *int    `json:"mushrooms_collected,omitempty" validate:"omitempty,min=0,max=10000"`
}

// DiaryResult is an added entry with the stats it produced.
type DiaryResult struct {
	Entry *domain.DiaryEntry `json:"entry"`
	Stats *domain.UserStats  `json:"stats,omitempty"`
}

// List returns the user's entries, newest first.
func (s *DiaryService) List(ctx context.Context, userID int64) ([]domain.DiaryEntry, error) {
	if err := s.requireSubscription(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListDiaryEntries(ctx, userID)
	if err != nil {
		return nil, storeError(err, "list diary")
	}
	return entries, nil
}

// AddEntry stores an entry and awards experience for each collected mushroom.
// The experience is a separate write; a failure there is logged and the
// entry is kept.
func (s *DiaryService) AddEntry(ctx context.Context, userID int64, req AddDiaryEntryRequest) (*DiaryResult, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireSubscription(ctx, userID); err != nil {
		return nil, err
	}

	entry := &domain.DiaryEntry{
		UserID:             userID,
		Note:               req.Note,
		MushroomsCollected: req.MushroomsCollected,
		Timestamp:          s.now().UTC(),
	}
	if err := s.store.CreateDiaryEntry(ctx, entry); err != nil {
		return nil, storeError(err, "create diary entry")
	}

	result := &DiaryResult{Entry: entry}
	if n := req.MushroomsCollected; n > 0 {
		stats, err := s.stats.AddExperience(ctx, userID, n*domain.ExperiencePerMushroom, n)
		if err != nil {
			s.logger.Warn("diary entry saved but experience update failed",
				"user_id", userID,
				"entry_id", entry.ID,
				"error", err,
			)
		}
		result.Stats = stats
	}
	return result, nil
}

// Update edits an entry. Changing the mushroom count does not touch experience.
func (s *DiaryService) Update(ctx context.Context, userID, entryID int64, req UpdateDiaryEntryRequest) (*domain.DiaryEntry, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	entry, err := s.owned(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if req.Note != nil {
		entry.Note = *req.Note
	}
	if req.MushroomsCollected != nil {
		entry.MushroomsCollected = *req.MushroomsCollected
	}
	if err := s.store.UpdateDiaryEntry(ctx, entry); err != nil {
		return nil, storeError(err, "update diary entry")
	}
	return entry, nil
}

// Delete removes an entry.
func (s *DiaryService) Delete(ctx context.Context, userID, entryID int64) error {
	if _, err := s.owned(ctx, userID, entryID); err != nil {
		return err
	}
	if err := s.store.DeleteDiaryEntry(ctx, entryID); err != nil {
		return storeError(err, "delete diary entry")
	}
	return nil
}

func (s *DiaryService) owned(ctx context.Context, userID, entryID int64) (*domain.DiaryEntry, error) {
	if err := s.requireSubscription(ctx, userID); err != nil {
		return nil, err
	}
	entry, err := s.store.GetDiaryEntry(ctx, entryID)
	if err != nil {
		return nil, storeError(err, "get diary entry")
	}
	// Other users' entries are reported as missing.
	if entry.UserID != userID {
		return nil, domainerrors.NotFoundf("diary entry %d not found", entryID)
	}
	return entry, nil
}

func (s *DiaryService) requireSubscription(ctx context.Context, userID int64) error {
	if !s.subscriptions.HasActiveSubscription(ctx, userID) {
		return errSubscriptionRequired
	}
	return nil
}
