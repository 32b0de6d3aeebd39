package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

const userColumns = `id, username, password_hash, email, is_admin, created_at`

func scanUser(scanner rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		email     sql.NullString
		isAdmin   int
		createdAt string
	)
	if err := scanner.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &isAdmin, &createdAt); err != nil {
		return nil, err
	}

	u.Email = email.String
	u.IsAdmin = isAdmin != 0

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user. A taken username yields store.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, email, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, nullString(u.Email), boolToInt(u.IsAdmin), formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("username %q already taken", u.Username))
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID = id

	s.emitUser(u, store.OpCreated)
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	return u, nil
}

// UpdateUser saves a user's mutable fields.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, password_hash = ?, email = ?, is_admin = ?
		WHERE id = ?`,
		u.Username, u.PasswordHash, nullString(u.Email), boolToInt(u.IsAdmin), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("username %q already taken", u.Username))
		}
		return fmt.Errorf("update user: %w", err)
	}
	if err := requireAffected(res, "user", u.ID); err != nil {
		return err
	}

	s.emitUser(u, store.OpUpdated)
	return nil
}

// DeleteUser removes a user. Their stats and diary go with them. Their
// markers stay on the map without an owner, and their subscriptions are
// deactivated and orphaned so the keys can never be activated again.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE subscriptions SET is_active = 0 WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("deactivate subscriptions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireAffected(res, "user", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}

	s.emit(store.Change{Collection: store.CollectionUsers, Op: store.OpDeleted, ID: id, UserID: id})
	return nil
}

// ListUsers returns all users in registration order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) emitUser(u *domain.User, op store.Op) {
	snapshot := *u
	s.emit(store.Change{Collection: store.CollectionUsers, Op: op, ID: u.ID, UserID: u.ID, Entity: &snapshot})
}
