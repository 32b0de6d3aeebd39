package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

// mushroomColumns must match the scan order in scanMushroom.
const mushroomColumns = `id, name, scientific_name, description, is_edible,
	image_ref, habitat, season, characteristics`

func scanMushroom(scanner rowScanner) (*domain.Mushroom, error) {
	var (
		m               domain.Mushroom
		isEdible        int
		imageRef        sql.NullString
		habitat         sql.NullString
		season          sql.NullString
		characteristics sql.NullString
	)
	err := scanner.Scan(
		&m.ID,
		&m.Name,
		&m.ScientificName,
		&m.Description,
		&isEdible,
		&imageRef,
		&habitat,
		&season,
		&characteristics,
	)
	if err != nil {
		return nil, err
	}

	m.IsEdible = isEdible != 0
	m.ImageRef = imageRef.String
	m.Habitat = habitat.String
	m.Season = season.String
	m.Characteristics = characteristics.String
	return &m, nil
}

// CreateMushroom inserts a catalog entry and assigns its ID.
func (s *Store) CreateMushroom(ctx context.Context, m *domain.Mushroom) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mushrooms (name, name_folded, scientific_name, scientific_name_folded,
			description, is_edible, image_ref, habitat, season, characteristics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, fold(m.Name), m.ScientificName, fold(m.ScientificName),
		m.Description, boolToInt(m.IsEdible), nullString(m.ImageRef),
		nullString(m.Habitat), nullString(m.Season), nullString(m.Characteristics),
	)
	if err != nil {
		return fmt.Errorf("insert mushroom: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("mushroom id: %w", err)
	}
	m.ID = id

	s.afterMushroomWrite(ctx, m, store.OpCreated)
	return nil
}

// GetMushroom retrieves a catalog entry by ID.
func (s *Store) GetMushroom(ctx context.Context, id int64) (*domain.Mushroom, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mushroomColumns+` FROM mushrooms WHERE id = ?`, id)
	m, err := scanMushroom(row)
	if err != nil {
		return nil, notFound(err, "mushroom", id)
	}
	return m, nil
}

// UpdateMushroom replaces every field of an existing catalog entry.
func (s *Store) UpdateMushroom(ctx context.Context, m *domain.Mushroom) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE mushrooms SET
			name = ?, name_folded = ?, scientific_name = ?, scientific_name_folded = ?,
			description = ?, is_edible = ?, image_ref = ?, habitat = ?, season = ?,
			characteristics = ?
		WHERE id = ?`,
		m.Name, fold(m.Name), m.ScientificName, fold(m.ScientificName),
		m.Description, boolToInt(m.IsEdible), nullString(m.ImageRef),
		nullString(m.Habitat), nullString(m.Season), nullString(m.Characteristics),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update mushroom: %w", err)
	}
	if err := requireAffected(res, "mushroom", m.ID); err != nil {
		return err
	}

	s.afterMushroomWrite(ctx, m, store.OpUpdated)
	return nil
}

// SaveMushroom inserts a new entry (ID 0) or updates an existing one.
func (s *Store) SaveMushroom(ctx context.Context, m *domain.Mushroom) error {
	if m.IsNew() {
		return s.CreateMushroom(ctx, m)
	}
	return s.UpdateMushroom(ctx, m)
}

// DeleteMushroom removes a catalog entry. Markers referencing it keep their
// pin and lose the link.
func (s *Store) DeleteMushroom(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mushrooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete mushroom: %w", err)
	}
	if err := requireAffected(res, "mushroom", id); err != nil {
		return err
	}

	if err := s.indexer().DeleteMushroom(ctx, id); err != nil {
		s.logger.Warn("failed to remove mushroom from search index", "mushroom_id", id, "error", err)
	}
	s.emit(store.Change{Collection: store.CollectionMushrooms, Op: store.OpDeleted, ID: id})
	return nil
}

// ListMushrooms returns the whole catalog ordered by name.
func (s *Store) ListMushrooms(ctx context.Context) ([]domain.Mushroom, error) {
	return s.queryMushrooms(ctx, `SELECT `+mushroomColumns+` FROM mushrooms ORDER BY name_folded ASC, id ASC`)
}

// SearchMushrooms returns catalog entries whose name or scientific name
// contains query, ignoring case. An empty query matches everything.
func (s *Store) SearchMushrooms(ctx context.Context, query string) ([]domain.Mushroom, error) {
	q := fold(query)
	return s.queryMushrooms(ctx, `
		SELECT `+mushroomColumns+` FROM mushrooms
		WHERE instr(name_folded, ?) > 0 OR instr(scientific_name_folded, ?) > 0
		ORDER BY name_folded ASC, id ASC`, q, q)
}

// CountMushrooms returns the catalog size.
func (s *Store) CountMushrooms(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mushrooms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mushrooms: %w", err)
	}
	return n, nil
}

func (s *Store) queryMushrooms(ctx context.Context, query string, args ...any) ([]domain.Mushroom, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mushrooms: %w", err)
	}
	defer rows.Close()

	result := []domain.Mushroom{}
	for rows.Next() {
		m, err := scanMushroom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mushroom: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (s *Store) afterMushroomWrite(ctx context.Context, m *domain.Mushroom, op store.Op) {
	if err := s.indexer().IndexMushroom(ctx, m); err != nil {
		s.logger.Warn("failed to index mushroom", "mushroom_id", m.ID, "error", err)
	}
	snapshot := *m
	s.emit(store.Change{Collection: store.CollectionMushrooms, Op: op, ID: m.ID, Entity: &snapshot})
}
