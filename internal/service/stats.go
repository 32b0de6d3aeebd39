package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/store"
)

// LevelObserver is told how many levels were gained by an update.
type LevelObserver interface {
	AddLevelUps(n int)
}

// StatsService owns experience, levels and counters.
type StatsService struct {
	store         store.Store
	subscriptions *SubscriptionService
	observer      LevelObserver
	logger        *slog.Logger
	now           func() time.Time
}

// NewStatsService creates a stats service. observer may be nil.
func NewStatsService(s store.Store, subscriptions *SubscriptionService, observer LevelObserver, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:         s,
		subscriptions: subscriptions,
		observer:      observer,
		logger:        orDiscard(logger),
		now:           time.Now,
	}
}

// GetOrCreate returns the user's stats, creating the initial record if needed.
func (s *StatsService) GetOrCreate(ctx context.Context, userID int64) (*domain.UserStats, error) {
	stats, err := s.store.GetOrCreateUserStats(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get or create stats")
	}
	return stats, nil
}

// AddExperience credits experience and collected mushrooms, leveling up as needed.
func (s *StatsService) AddExperience(ctx context.Context, userID int64, exp, mushrooms int) (*domain.UserStats, error) {
	if exp < 0 || mushrooms < 0 {
		return nil, domainerrors.Validation("experience and mushroom counts must not be negative")
	}

	current, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := domain.ApplyExperience(*current, exp, mushrooms, s.now().UTC())
	if err := s.store.SaveUserStats(ctx, &updated); err != nil {
		return nil, storeError(err, "save stats")
	}

	if gained := updated.Level - current.Level; gained > 0 {
		if s.observer != nil {
			s.observer.AddLevelUps(gained)
		}
		s.logger.Info("user leveled up",
			"user_id", userID,
			"level", updated.Level,
		)
	}
	return &updated, nil
}

// IncrementMarkersCreated counts one created marker.
func (s *StatsService) IncrementMarkersCreated(ctx context.Context, userID int64) (*domain.UserStats, error) {
	current, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated := domain.IncrementMarkersCreated(*current, s.now().UTC())
	if err := s.store.SaveUserStats(ctx, &updated); err != nil {
		return nil, storeError(err, "save stats")
	}
	return &updated, nil
}

// Profile is everything the profile screen shows.
type Profile struct {
	User                   *domain.User         `json:"user"`
	Stats                  *domain.UserStats    `json:"stats"`
	Title                  domain.LevelTitle    `json:"title"`
	ExperienceForNextLevel int                  `json:"experience_for_next_level"`
	Subscribed             bool                 `json:"subscribed"`
	Subscription           *domain.Subscription `json:"subscription,omitempty"`
}

// Profile assembles the user's profile.
func (s *StatsService) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user")
	}
	stats, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub, err := s.subscriptions.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:                   user,
		Stats:                  stats,
		Title:                  domain.TitleForLevel(stats.Level),
		ExperienceForNextLevel: domain.ExperienceForNextLevel(stats.Level),
		Subscribed:             sub != nil,
		Subscription:           sub,
	}, nil
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank                    int               `json:"rank"`
	UserID                  int64             `json:"user_id"`
	Username                string            `json:"username"`
	Level                   int               `json:"level"`
	Experience              int               `json:"experience"`
	TotalMushroomsCollected int               `json:"total_mushrooms_collected"`
	Title                   domain.LevelTitle `json:"title"`
}

// Leaderboard ranks users by level, then experience. limit <= 0 returns everyone.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	all, err := s.store.ListUserStats(ctx, limit)
	if err != nil {
		return nil, storeError(err, "list stats")
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "list users")
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	entries := make([]LeaderboardEntry, 0, len(all))
	for i, st := range all {
		entries = append(entries, LeaderboardEntry{
			Rank:                    i + 1,
			UserID:                  st.UserID,
			Username:                names[st.UserID],
			Level:                   st.Level,
			Experience:              st.Experience,
			TotalMushroomsCollected: st.TotalMushroomsCollected,
			Title:                   domain.TitleForLevel(st.Level),
		})
	}
	return entries, nil
}
