package domain

import "time"

// Subscription grants premium features (private markers, diary) to a user.
// Each activation key can back at most one subscription.
type Subscription struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Key         string    `json:"key"`
	IsActive    bool      `json:"is_active"`
	ActivatedAt time.Time `json:"activated_at"`
}
