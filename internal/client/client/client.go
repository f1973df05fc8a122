package client

import (
	"context"
)

// Client is the API contract the sync subsystem needs from the backend.
type Client interface {
	Close() error

	// List returns one page of the user's moments.
	List(ctx context.Context, params ListMomentsParams) (*ListMomentsResult, error)

	// GetByServerID fetches current server state of a moment.
	GetByServerID(ctx context.Context, serverID string) (*Moment, error)

	// GetByClientID looks a moment up by its client-generated id. Returns
	// ErrNotFound when the server has never seen it.
	GetByClientID(ctx context.Context, clientID string) (*Moment, error)

	// Create registers a locally created moment on the server. Returns
	// ErrDailyLimitReached or ErrTotalLimitReached when a creation quota
	// is exceeded.
	Create(ctx context.Context, req CreateMomentRequest) (*Moment, error)

	// RequestEnrichment asks the server to generate praise for a moment.
	// Returns ErrEnrichInProgress when generation is already running.
	RequestEnrichment(ctx context.Context, serverID string) (*Moment, error)

	// SetFavorite syncs the favorite flag to the server.
	SetFavorite(ctx context.Context, serverID string, isFavorite bool) error

	// Delete removes a moment on the server.
	Delete(ctx context.Context, serverID string) error

	// Restore undoes a remote delete and returns the restored moment.
	Restore(ctx context.Context, serverID string) (*Moment, error)
}
