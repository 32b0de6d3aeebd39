package sqlite

import (
	"context"
	"fmt"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

const diaryColumns = `id, user_id, note, mushrooms_collected, timestamp`

func scanDiaryEntry(scanner rowScanner) (*domain.DiaryEntry, error) {
	var (
		e         domain.DiaryEntry
		timestamp string
	)
	if err := scanner.Scan(&e.ID, &e.UserID, &e.Note, &e.MushroomsCollected, &timestamp); err != nil {
		return nil, err
	}

	var err error
	if e.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, fmt.Errorf("parse diary timestamp: %w", err)
	}
	return &e, nil
}

// CreateDiaryEntry inserts a diary entry. A zero Timestamp is set to now.
func (s *Store) CreateDiaryEntry(ctx context.Context, e *domain.DiaryEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO diary_entries (user_id, note, mushrooms_collected, timestamp)
		VALUES (?, ?, ?, ?)`,
		e.UserID, e.Note, e.MushroomsCollected, formatTime(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert diary entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("diary entry id: %w", err)
	}
	e.ID = id

	s.emitDiary(e, store.OpCreated)
	return nil
}

// GetDiaryEntry retrieves a diary entry by ID.
func (s *Store) GetDiaryEntry(ctx context.Context, id int64) (*domain.DiaryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+diaryColumns+` FROM diary_entries WHERE id = ?`, id)
	e, err := scanDiaryEntry(row)
	if err != nil {
		return nil, notFound(err, "diary entry", id)
	}
	return e, nil
}

// UpdateDiaryEntry saves the note and count of an entry.
func (s *Store) UpdateDiaryEntry(ctx context.Context, e *domain.DiaryEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE diary_entries SET note = ?, mushrooms_collected = ? WHERE id = ?`,
		e.Note, e.MushroomsCollected, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update diary entry: %w", err)
	}
	if err := requireAffected(res, "diary entry", e.ID); err != nil {
		return err
	}

	s.emitDiary(e, store.OpUpdated)
	return nil
}

// DeleteDiaryEntry removes a diary entry.
func (s *Store) DeleteDiaryEntry(ctx context.Context, id int64) error {
	existing, err := s.GetDiaryEntry(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM diary_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete diary entry: %w", err)
	}
	if err := requireAffected(res, "diary entry", id); err != nil {
		return err
	}

	s.emit(store.Change{Collection: store.CollectionDiary, Op: store.OpDeleted, ID: id, UserID: existing.UserID})
	return nil
}

// ListDiaryEntries returns a user's diary, newest first.
func (s *Store) ListDiaryEntries(ctx context.Context, userID int64) ([]domain.DiaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+diaryColumns+` FROM diary_entries
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query diary entries: %w", err)
	}
	defer rows.Close()

	result := []domain.DiaryEntry{}
	for rows.Next() {
		e, err := scanDiaryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diary entry: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (s *Store) emitDiary(e *domain.DiaryEntry, op store.Op) {
	snapshot := *e
	s.emit(store.Change{Collection: store.CollectionDiary, Op: op, ID: e.ID, UserID: e.UserID, Entity: &snapshot})
}
