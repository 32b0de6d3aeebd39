package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

// markerColumns must match the scan order in scanMarker.
const markerColumns = `id, latitude, longitude, photo_ref, title, note,
	user_id, mushroom_id, is_private, timestamp`

func scanMarker(scanner rowScanner) (*domain.MapMarker, error) {
	var (
		m          domain.MapMarker
		title      sql.NullString
		note       sql.NullString
		userID     sql.NullInt64
		mushroomID sql.NullInt64
		isPrivate  int
		timestamp  string
	)
	err := scanner.Scan(
		&m.ID,
		&m.Latitude,
		&m.Longitude,
		&m.PhotoRef,
		&title,
		&note,
		&userID,
		&mushroomID,
		&isPrivate,
		&timestamp,
	)
	if err != nil {
		return nil, err
	}

	m.Title = title.String
	m.Note = note.String
	m.UserID = int64Ptr(userID)
	m.MushroomID = int64Ptr(mushroomID)
	m.IsPrivate = isPrivate != 0
	if m.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, fmt.Errorf("parse marker timestamp: %w", err)
	}
	return &m, nil
}

// CreateMarker inserts a marker and assigns its ID. A zero Timestamp is set to now.
// The privacy flag is stored as given; callers decide whether it is allowed.
func (s *Store) CreateMarker(ctx context.Context, m *domain.MapMarker) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO map_markers (latitude, longitude, photo_ref, title, note,
			user_id, mushroom_id, is_private, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Latitude, m.Longitude, m.PhotoRef, nullString(m.Title), nullString(m.Note),
		nullableInt64(m.UserID), nullableInt64(m.MushroomID), boolToInt(m.IsPrivate),
		formatTime(m.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert marker: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("marker id: %w", err)
	}
	m.ID = id

	s.emitMarker(m, store.OpCreated)
	return nil
}

// GetMarker retrieves a marker by ID.
func (s *Store) GetMarker(ctx context.Context, id int64) (*domain.MapMarker, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+markerColumns+` FROM map_markers WHERE id = ?`, id)
	m, err := scanMarker(row)
	if err != nil {
		return nil, notFound(err, "marker", id)
	}
	return m, nil
}

// UpdateMarker replaces the editable fields of a marker. Ownership and the
// creation timestamp are left untouched.
func (s *Store) UpdateMarker(ctx context.Context, m *domain.MapMarker) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE map_markers SET
			latitude = ?, longitude = ?, photo_ref = ?, title = ?, note = ?,
			mushroom_id = ?, is_private = ?
		WHERE id = ?`,
		m.Latitude, m.Longitude, m.PhotoRef, nullString(m.Title), nullString(m.Note),
		nullableInt64(m.MushroomID), boolToInt(m.IsPrivate), m.ID,
	)
	if err != nil {
		return fmt.Errorf("update marker: %w", err)
	}
	if err := requireAffected(res, "marker", m.ID); err != nil {
		return err
	}

	s.emitMarker(m, store.OpUpdated)
	return nil
}

// DeleteMarker removes a marker.
func (s *Store) DeleteMarker(ctx context.Context, id int64) error {
	// Read first so the delete notification can carry owner and privacy.
	existing, err := s.GetMarker(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM map_markers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete marker: %w", err)
	}
	if err := requireAffected(res, "marker", id); err != nil {
		return err
	}

	s.emitMarker(existing, store.OpDeleted)
	return nil
}

// ListMarkers returns every marker, newest first.
func (s *Store) ListMarkers(ctx context.Context) ([]domain.MapMarker, error) {
	return s.queryMarkers(ctx, `SELECT `+markerColumns+` FROM map_markers ORDER BY timestamp DESC, id DESC`)
}

// ListMarkersByUser returns a user's markers, newest first.
func (s *Store) ListMarkersByUser(ctx context.Context, userID int64) ([]domain.MapMarker, error) {
	return s.queryMarkers(ctx, `
		SELECT `+markerColumns+` FROM map_markers
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC`, userID)
}

func (s *Store) queryMarkers(ctx context.Context, query string, args ...any) ([]domain.MapMarker, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	result := []domain.MapMarker{}
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (s *Store) emitMarker(m *domain.MapMarker, op store.Op) {
	snapshot := *m
	change := store.Change{Collection: store.CollectionMarkers, Op: op, ID: m.ID, Entity: &snapshot}
	if m.UserID != nil {
		change.UserID = *m.UserID
	}
	s.emit(change)
}
