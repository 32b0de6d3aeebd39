package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

const subscriptionColumns = `id, user_id, key, is_active, activated_at`

func scanSubscription(scanner rowScanner) (*domain.Subscription, error) {
	var (
		sub         domain.Subscription
		userID      sql.NullInt64
		isActive    int
		activatedAt string
	)
	if err := scanner.Scan(&sub.ID, &userID, &sub.Key, &isActive, &activatedAt); err != nil {
		return nil, err
	}

	// Orphaned rows of deleted users keep the key reserved with no owner.
	sub.UserID = userID.Int64
	sub.IsActive = isActive != 0

	var err error
	if sub.ActivatedAt, err = parseTime(activatedAt); err != nil {
		return nil, fmt.Errorf("parse subscription activated_at: %w", err)
	}
	return &sub, nil
}

// CreateSubscription inserts a subscription. A key that was already used
// yields store.ErrAlreadyExists.
func (s *Store) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	if sub.ActivatedAt.IsZero() {
		sub.ActivatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, key, is_active, activated_at)
		VALUES (?, ?, ?, ?)`,
		sub.UserID, sub.Key, boolToInt(sub.IsActive), formatTime(sub.ActivatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("subscription key already used")
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("subscription id: %w", err)
	}
	sub.ID = id

	s.emitSubscription(sub, store.OpCreated)
	return nil
}

// GetSubscriptionByKey looks a subscription up by its activation key.
func (s *Store) GetSubscriptionByKey(ctx context.Context, key string) (*domain.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE key = ?`, key)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, notFound(err, "subscription", key)
	}
	return sub, nil
}

// GetActiveSubscription returns the user's most recently activated active
// subscription.
func (s *Store) GetActiveSubscription(ctx context.Context, userID int64) (*domain.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = ? AND is_active = 1
		ORDER BY activated_at DESC, id DESC
		LIMIT 1`, userID)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, notFound(err, "active subscription for user", userID)
	}
	return sub, nil
}

// UpdateSubscription saves the active flag. Key and owner never change.
func (s *Store) UpdateSubscription(ctx context.Context, sub *domain.Subscription) error {
	res, err := s.db.ExecContext(ctx, `UPDATE subscriptions SET is_active = ? WHERE id = ?`,
		boolToInt(sub.IsActive), sub.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if err := requireAffected(res, "subscription", sub.ID); err != nil {
		return err
	}

	s.emitSubscription(sub, store.OpUpdated)
	return nil
}

// ListSubscriptionsByUser returns every subscription of a user, newest first.
func (s *Store) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = ?
		ORDER BY activated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	result := []domain.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

func (s *Store) emitSubscription(sub *domain.Subscription, op store.Op) {
	snapshot := *sub
	s.emit(store.Change{
		Collection: store.CollectionSubscriptions,
		Op:         op,
		ID:         sub.ID,
		UserID:     sub.UserID,
		Entity:     &snapshot,
	})
}
