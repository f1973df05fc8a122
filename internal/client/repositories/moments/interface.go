package moments

import (
	"context"

	"github.com/vportnov/smallwins/internal/client/models"
)

// Repository describes persistence operations for Moment records and their
// deletion tombstones. Implementations are backed by the local SQLite
// database. Lookups that find nothing return common.ErrorNotFound.
type Repository interface {
	// Insert persists a brand-new moment.
	Insert(ctx context.Context, m *models.Moment) error

	// Update overwrites the stored moment identified by its ClientID.
	Update(ctx context.Context, m *models.Moment) error

	// DeleteByClientID removes a moment from the local store.
	DeleteByClientID(ctx context.Context, clientID string) error

	// GetAll returns every moment, newest happened-at first.
	GetAll(ctx context.Context) ([]models.Moment, error)

	// GetFavorites returns favorited moments, newest happened-at first.
	GetFavorites(ctx context.Context) ([]models.Moment, error)

	// GetByClientID returns the moment with the given client id.
	GetByClientID(ctx context.Context, clientID string) (*models.Moment, error)

	// GetByServerID returns the moment with the given server id.
	GetByServerID(ctx context.Context, serverID string) (*models.Moment, error)

	// GetUnsynced returns moments still awaiting enrichment, oldest
	// submitted first. The order is stable per call.
	GetUnsynced(ctx context.Context) ([]*models.Moment, error)

	// ClearQuotaSyncErrors wipes quota-type sync errors from every moment,
	// making them eligible for sync again after a quota reset or upgrade.
	ClearQuotaSyncErrors(ctx context.Context) error

	// AddTombstone records that the moment was deleted locally so a later
	// server response cannot resurrect it.
	AddTombstone(ctx context.Context, clientID string, serverID string) error

	// RemoveTombstone clears a tombstone (e.g. on restore).
	RemoveTombstone(ctx context.Context, clientID string, serverID string) error

	// IsTombstoned reports whether either identifier matches a recorded
	// deletion.
	IsTombstoned(ctx context.Context, clientID string, serverID string) (bool, error)
}
