// Package models defines client-side data models used by the smallwins app.
package models

import "time"

// Sync error values stored on a moment when a sync attempt fails terminally.
// Quota values exclude the moment from further automatic retries until the
// error is cleared by a quota reset or an upgrade.
const (
	SyncErrorDailyLimit = "daily moment limit reached"
	SyncErrorTotalLimit = "total moment limit reached"
)

// Moment is a single logged win, persisted locally and synced with the
// server. A moment is created with only ClientID populated, gains ServerID
// once accepted remotely, and counts as synced only when the AI praise has
// arrived.
type Moment struct {
	// ClientID is a client-generated UUID assigned at creation. It is
	// immutable and serves as the idempotency key for network operations
	// before a server identity exists.
	ClientID string

	// ServerID is assigned by the server once the moment has been accepted
	// remotely. Empty means the server does not know about this moment yet.
	ServerID string

	// Text is the user-entered description of the win.
	Text string

	// SubmittedAt is when the moment was created client-side.
	SubmittedAt time.Time
	// HappenedAt is when the user says the win actually happened. It may be
	// backdated via the "time ago" selector.
	HappenedAt time.Time

	// Timezone is the IANA identifier captured at creation, used for
	// day-bucketing on the server.
	Timezone string

	// Praise is the AI-generated enrichment text. Its presence is the
	// signal that enrichment succeeded.
	Praise string
	// Action and Tags are enrichment metadata returned alongside Praise.
	Action string
	Tags   []string

	// IsFavorite is user-toggleable and synced bidirectionally.
	IsFavorite bool

	// IsSynced is true only when Praise is present and non-empty, not
	// merely when a server id is known.
	IsSynced bool

	// SyncError holds a human-readable message when a sync attempt failed
	// terminally. A quota value suppresses further automatic retries.
	SyncError string
}

// RecomputeSynced derives IsSynced from the presence of praise.
func (m *Moment) RecomputeSynced() {
	m.IsSynced = m.Praise != ""
}

// IsQuotaBlocked reports whether the moment's sync error marks it as
// blocked by a creation quota.
func (m *Moment) IsQuotaBlocked() bool {
	return m.SyncError == SyncErrorDailyLimit || m.SyncError == SyncErrorTotalLimit
}
