package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

const userStatsColumns = `user_id, experience, level, total_mushrooms_collected,
	total_markers_created, last_updated`

func scanUserStats(scanner rowScanner) (*domain.UserStats, error) {
	var (
		st          domain.UserStats
		lastUpdated string
	)
	err := scanner.Scan(
		&st.UserID,
		&st.Experience,
		&st.Level,
		&st.TotalMushroomsCollected,
		&st.TotalMarkersCreated,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if st.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return nil, fmt.Errorf("parse stats last_updated: %w", err)
	}
	return &st, nil
}

// GetUserStats returns a user's stats, or nil with no error when none exist yet.
func (s *Store) GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userStatsColumns+` FROM user_stats WHERE user_id = ?`, userID)
	st, err := scanUserStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user stats: %w", err)
	}
	return st, nil
}

// GetOrCreateUserStats returns a user's stats, creating the level 1 row on
// first access.
func (s *Store) GetOrCreateUserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	fresh := domain.NewUserStats(userID, s.now())

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_stats (user_id, experience, level,
			total_mushrooms_collected, total_markers_created, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fresh.UserID, fresh.Experience, fresh.Level,
		fresh.TotalMushroomsCollected, fresh.TotalMarkersCreated, formatTime(fresh.LastUpdated),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure user stats: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.emitUserStats(&fresh, store.OpCreated)
	}

	st, err := s.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("stats for user %d not found", userID))
	}
	return st, nil
}

// SaveUserStats inserts or replaces a user's stats row.
func (s *Store) SaveUserStats(ctx context.Context, st *domain.UserStats) error {
	if st.LastUpdated.IsZero() {
		st.LastUpdated = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, experience, level,
			total_mushrooms_collected, total_markers_created, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			experience = excluded.experience,
			level = excluded.level,
			total_mushrooms_collected = excluded.total_mushrooms_collected,
			total_markers_created = excluded.total_markers_created,
			last_updated = excluded.last_updated`,
		st.UserID, st.Experience, st.Level,
		st.TotalMushroomsCollected, st.TotalMarkersCreated, formatTime(st.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("save user stats: %w", err)
	}

	s.emitUserStats(st, store.OpUpdated)
	return nil
}

// ListUserStats returns the leaderboard: highest level first, then experience.
// A non-positive limit returns every row.
func (s *Store) ListUserStats(ctx context.Context, limit int) ([]domain.UserStats, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userStatsColumns+` FROM user_stats
		ORDER BY level DESC, experience DESC, user_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query user stats: %w", err)
	}
	defer rows.Close()

	result := []domain.UserStats{}
	for rows.Next() {
		st, err := scanUserStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user stats: %w", err)
		}
		result = append(result, *st)
	}
	return result, rows.Err()
}

func (s *Store) emitUserStats(st *domain.UserStats, op store.Op) {
	snapshot := *st
	s.emit(store.Change{
		Collection: store.CollectionUserStats,
		Op:         op,
		ID:         st.UserID,
		UserID:     st.UserID,
		Entity:     &snapshot,
	})
}
