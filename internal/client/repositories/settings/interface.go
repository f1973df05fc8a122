package settings

import (
	"context"
)

// Repository is a small persisted key/value store for client-side state
// that must survive restarts: the anonymous user id, the premium flag and
// the quota markers. Get returns an empty string for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Keys used by the smallwins client.
const (
	KeyAnonUserID          = "anon_user_id"
	KeyPremium             = "premium"
	KeyDailyLimitReachedAt = "daily_limit_reached_at"
	KeyTotalLimitReached   = "total_limit_reached"
)
