package client

import "time"

// Moment is the wire representation of a moment as reported by the server.
// Timestamps are ISO-8601 strings, optionally with fractional seconds.
type Moment struct {
	ID          string   `json:"id,omitempty"`
	ClientID    string   `json:"clientId,omitempty"`
	Text        string   `json:"text"`
	SubmittedAt string   `json:"submittedAt"`
	HappenedAt  string   `json:"happenedAt"`
	Timezone    string   `json:"tz"`
	TimeAgo     int      `json:"timeAgo,omitempty"`
	Praise      string   `json:"praise,omitempty"`
	Action      string   `json:"action,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsFavorite  bool     `json:"isFavorite,omitempty"`
}

// CreateMomentRequest is the body of POST /moments.
type CreateMomentRequest struct {
	ClientID    string `json:"clientId"`
	Text        string `json:"text"`
	SubmittedAt string `json:"submittedAt"`
	Timezone    string `json:"tz"`
	TimeAgo     int    `json:"timeAgo,omitempty"`
}

// ListMomentsResult is the body of GET /moments.
type ListMomentsResult struct {
	Data         []Moment `json:"data"`
	NextCursor   string   `json:"nextCursor,omitempty"`
	HasNextPage  bool     `json:"hasNextPage"`
	LimitReached bool     `json:"limitReached"`
}

// ListMomentsParams are the query parameters of GET /moments.
type ListMomentsParams struct {
	Limit      int
	Cursor     string
	IsFavorite *bool
}

type itemResponse struct {
	Item Moment `json:"item"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Wire error codes returned by the create endpoint when a quota is hit.
const (
	codeDailyLimitReached = "daily_limit_reached"
	codeTotalLimitReached = "total_limit_reached"
)

// ParseTimestamp parses an ISO-8601 timestamp with optional fractional
// seconds. A value that does not parse yields the fallback: a single
// malformed field must never fail a whole reconciliation.
func ParseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fallback
	}
	return t
}

// FormatTimestamp renders a timestamp the way the server expects it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
