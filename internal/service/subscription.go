package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/store"
)

// ReasonAlreadyUsed is reported when a key has been activated before.
const ReasonAlreadyUsed = "already_used"

// ActivationObserver is notified of every activation attempt.
type ActivationObserver interface {
	ObserveActivation(activated bool)
}

// SubscriptionService activates premium subscriptions from keys.
type SubscriptionService struct {
	store    store.Store
	observer ActivationObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a subscription service. observer may be nil.
func NewSubscriptionService(s store.Store, observer ActivationObserver, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:    s,
		observer: observer,
		logger:   orDiscard(logger),
		now:      time.Now,
	}
}

// ActivateRequest carries a subscription key.
type ActivateRequest struct {
	Key string `json:"key" validate:"required,max=128"`
}

// Activate binds an unused key to userID. It reports false when the key has
// already been used by anyone, the same user included. A duplicate insert
// racing with another activation is reported the same way.
func (s *SubscriptionService) Activate(ctx context.Context, userID int64, key string) (bool, error) {
	req := ActivateRequest{Key: strings.TrimSpace(key)}
	if err := validate.Validate(req); err != nil {
		return false, err
	}

	existing, err := s.store.GetSubscriptionByKey(ctx, req.Key)
	switch {
	case err == nil && existing != nil:
		s.observe(false)
		s.logger.Info("subscription key already used",
			"user_id", userID,
			"owner_id", existing.UserID,
		)
		return false, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return false, fmt.Errorf("lookup subscription key: %w", err)
	}

	sub := &domain.Subscription{
		UserID:      userID,
		Key:         req.Key,
		IsActive:    true,
		ActivatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			s.observe(false)
			return false, nil
		}
		return false, storeError(err, "create subscription")
	}

	s.observe(true)
	s.logger.Info("subscription activated", "user_id", userID, "subscription_id", sub.ID)
	return true, nil
}

// HasActiveSubscription reports whether userID holds an active subscription.
// Lookup failures count as no subscription.
func (s *SubscriptionService) HasActiveSubscription(ctx context.Context, userID int64) bool {
	sub, err := s.GetActive(ctx, userID)
	if err != nil {
		s.logger.Warn("subscription lookup failed", "user_id", userID, "error", err)
		return false
	}
	return sub != nil
}

// GetActive returns the user's most recent active subscription, or nil.
func (s *SubscriptionService) GetActive(ctx context.Context, userID int64) (*domain.Subscription, error) {
	sub, err := s.store.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, storeError(err, "get active subscription")
	}
	return sub, nil
}

// Deactivate turns off every active subscription of userID. Keys stay used.
func (s *SubscriptionService) Deactivate(ctx context.Context, userID int64) (int, error) {
	subs, err := s.store.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return 0, storeError(err, "list subscriptions")
	}
	n := 0
	for i := range subs {
		if !subs[i].IsActive {
			continue
		}
		subs[i].IsActive = false
		if err := s.store.UpdateSubscription(ctx, &subs[i]); err != nil {
			return n, storeError(err, "deactivate subscription")
		}
		n++
	}
	return n, nil
}

func (s *SubscriptionService) observe(activated bool) {
	if s.observer != nil {
		s.observer.ObserveActivation(activated)
	}
}

// errSubscriptionRequired is returned by premium features.
var errSubscriptionRequired = domainerrors.Forbidden("an active subscription is required")
