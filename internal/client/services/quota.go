package services

import (
	"context"
	"time"

	"github.com/vportnov/smallwins/internal/client/repositories/settings"
)

// Quota tracks the two creation limits: a daily one that expires at local
// midnight and a lifetime one that persists until a premium upgrade. State
// lives in the settings store so it survives restarts; the day-rollover is
// re-evaluated on every query.
type Quota struct {
	settings settings.Repository
	now      func() time.Time
}

func NewQuota(settingsRepo settings.Repository) *Quota {
	return &Quota{settings: settingsRepo, now: time.Now}
}

// MarkDailyLimitReached records "now" as the daily limit timestamp.
func (q *Quota) MarkDailyLimitReached(ctx context.Context) error {
	return q.settings.Set(ctx, settings.KeyDailyLimitReachedAt, q.now().Format(time.RFC3339Nano))
}

// IsDailyLimitReached reports whether the daily limit was hit today. A
// previous-day marker is treated as expired and cleared.
func (q *Quota) IsDailyLimitReached(ctx context.Context) (bool, error) {
	raw, err := q.settings.Get(ctx, settings.KeyDailyLimitReachedAt)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}

	marked, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// unreadable marker, drop it
		return false, q.settings.Delete(ctx, settings.KeyDailyLimitReachedAt)
	}

	now := q.now()
	if sameDay(marked.In(now.Location()), now) {
		return true, nil
	}
	return false, q.settings.Delete(ctx, settings.KeyDailyLimitReachedAt)
}

// MarkTotalLimitReached sets the persistent lifetime-limit flag.
func (q *Quota) MarkTotalLimitReached(ctx context.Context) error {
	return q.settings.Set(ctx, settings.KeyTotalLimitReached, "1")
}

func (q *Quota) IsTotalLimitReached(ctx context.Context) (bool, error) {
	raw, err := q.settings.Get(ctx, settings.KeyTotalLimitReached)
	if err != nil {
		return false, err
	}
	return raw == "1", nil
}

func (q *Quota) IsPremium(ctx context.Context) (bool, error) {
	raw, err := q.settings.Get(ctx, settings.KeyPremium)
	if err != nil {
		return false, err
	}
	return raw == "1", nil
}

// SetPremium persists the entitlement flag. Turning premium on performs the
// full quota reset.
func (q *Quota) SetPremium(ctx context.Context, premium bool) error {
	if !premium {
		return q.settings.Delete(ctx, settings.KeyPremium)
	}
	if err := q.settings.Set(ctx, settings.KeyPremium, "1"); err != nil {
		return err
	}
	return q.Reset(ctx)
}

// ShouldBlockCreation is consulted before any server-side creation attempt.
// Premium users are never blocked; otherwise the lifetime flag takes
// precedence over the daily check.
func (q *Quota) ShouldBlockCreation(ctx context.Context) (bool, error) {
	premium, err := q.IsPremium(ctx)
	if err != nil {
		return false, err
	}
	if premium {
		return false, nil
	}

	total, err := q.IsTotalLimitReached(ctx)
	if err != nil {
		return false, err
	}
	if total {
		return true, nil
	}

	return q.IsDailyLimitReached(ctx)
}

// ClearDailyLimit removes only the daily marker.
func (q *Quota) ClearDailyLimit(ctx context.Context) error {
	return q.settings.Delete(ctx, settings.KeyDailyLimitReachedAt)
}

// Reset clears both limits (used on upgrade).
func (q *Quota) Reset(ctx context.Context) error {
	if err := q.settings.Delete(ctx, settings.KeyDailyLimitReachedAt); err != nil {
		return err
	}
	return q.settings.Delete(ctx, settings.KeyTotalLimitReached)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
