package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/smallwins/internal/client/client"
	"github.com/vportnov/smallwins/internal/client/models"
	"github.com/vportnov/smallwins/internal/client/repositories/moments"
	"github.com/vportnov/smallwins/internal/common"
	"github.com/vportnov/smallwins/internal/logging"
)

// PlaceholderText is used when the user logs a win without describing it.
const PlaceholderText = "logged a small win"

const refreshPageSize = 50

// MomentService is the UI-facing facade over the local store and the sync
// machinery. Writes always land locally first; the server catches up via
// the Syncer or best-effort calls.
type MomentService interface {
	// Log creates a new local moment. timeAgo backdates the happened-at
	// timestamp; empty text gets the placeholder.
	Log(ctx context.Context, text string, timeAgo time.Duration) (*models.Moment, error)

	// List returns all local moments, newest first.
	List(ctx context.Context) ([]models.Moment, error)

	// Favorites returns favorited moments, newest first.
	Favorites(ctx context.Context) ([]models.Moment, error)

	// ToggleFavorite flips the flag locally and pushes it to the server
	// best-effort when a server id is known.
	ToggleFavorite(ctx context.Context, clientID string) (*models.Moment, error)

	// Delete removes the moment locally, leaves a tombstone so sync cannot
	// resurrect it, and requests remote deletion best-effort.
	Delete(ctx context.Context, clientID string) error

	// Restore undoes a remote delete, clears the tombstone and reconciles
	// the restored record back into the store.
	Restore(ctx context.Context, serverID string) (*models.Moment, error)

	// Refresh pages through the server's moment list and reconciles every
	// record into the local store.
	Refresh(ctx context.Context) error

	// Upgrade marks the user premium, resets quota markers and makes
	// quota-blocked moments eligible for sync again.
	Upgrade(ctx context.Context) error
}

type momentService struct {
	apiClient  client.Client
	moments    moments.Repository
	reconciler *Reconciler
	quota      *Quota
	log        logging.Logger
	timezone   string
	now        func() time.Time
}

func NewMomentService(apiClient client.Client, momentRepo moments.Repository,
	reconciler *Reconciler, quota *Quota, log logging.Logger, timezone string) MomentService {
	return &momentService{
		apiClient:  apiClient,
		moments:    momentRepo,
		reconciler: reconciler,
		quota:      quota,
		log:        log,
		timezone:   timezone,
		now:        time.Now,
	}
}

func (s *momentService) Log(ctx context.Context, text string, timeAgo time.Duration) (*models.Moment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = PlaceholderText
	}
	if timeAgo < 0 {
		timeAgo = 0
	}

	now := s.now()
	m := &models.Moment{
		ClientID:    uuid.NewString(),
		Text:        text,
		SubmittedAt: now,
		HappenedAt:  now.Add(-timeAgo),
		Timezone:    s.timezone,
		Tags:        []string{},
	}

	if err := s.moments.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("saving moment: %w", err)
	}
	return m, nil
}

func (s *momentService) List(ctx context.Context) ([]models.Moment, error) {
	rows, err := s.moments.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing moments: %w", err)
	}
	return rows, nil
}

func (s *momentService) Favorites(ctx context.Context) ([]models.Moment, error) {
	rows, err := s.moments.GetFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return rows, nil
}

func (s *momentService) ToggleFavorite(ctx context.Context, clientID string) (*models.Moment, error) {
	m, err := s.moments.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("loading moment: %w", err)
	}

	m.IsFavorite = !m.IsFavorite
	if err := s.moments.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("updating moment: %w", err)
	}

	if m.ServerID != "" {
		if err := s.apiClient.SetFavorite(ctx, m.ServerID, m.IsFavorite); err != nil {
			s.log.Warn(ctx, "favorite not pushed to server",
				"client_id", m.ClientID, "error", err)
		}
	}
	return m, nil
}

func (s *momentService) Delete(ctx context.Context, clientID string) error {
	m, err := s.moments.GetByClientID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("loading moment: %w", err)
	}

	if err := s.moments.AddTombstone(ctx, m.ClientID, m.ServerID); err != nil {
		return err
	}
	if err := s.moments.DeleteByClientID(ctx, m.ClientID); err != nil {
		return fmt.Errorf("deleting moment: %w", err)
	}

	if m.ServerID != "" {
		if err := s.apiClient.Delete(ctx, m.ServerID); err != nil {
			s.log.Warn(ctx, "remote delete failed, moment stays tombstoned locally",
				"server_id", m.ServerID, "error", err)
		}
	}
	return nil
}

func (s *momentService) Restore(ctx context.Context, serverID string) (*models.Moment, error) {
	if serverID == "" {
		return nil, common.ErrorNoServerID
	}

	remote, err := s.apiClient.Restore(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("restoring moment: %w", err)
	}

	// Clear the tombstone first so reconciliation is not suppressed.
	if err := s.moments.RemoveTombstone(ctx, remote.ClientID, remote.ID); err != nil {
		return nil, err
	}

	m, err := s.reconciler.Reconcile(ctx, *remote)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *momentService) Upgrade(ctx context.Context) error {
	if err := s.quota.SetPremium(ctx, true); err != nil {
		return fmt.Errorf("upgrading: %w", err)
	}
	if err := s.moments.ClearQuotaSyncErrors(ctx); err != nil {
		return fmt.Errorf("unblocking moments: %w", err)
	}
	return nil
}

func (s *momentService) Refresh(ctx context.Context) error {
	cursor := ""
	for {
		res, err := s.apiClient.List(ctx, client.ListMomentsParams{
			Limit:  refreshPageSize,
			Cursor: cursor,
		})
		if err != nil {
			return fmt.Errorf("fetching moments: %w", err)
		}

		for _, remote := range res.Data {
			if _, err := s.reconciler.Reconcile(ctx, remote); err != nil && !errors.Is(err, ErrMomentDeleted) {
				s.log.Warn(ctx, "reconcile failed during refresh",
					"server_id", remote.ID, "error", err)
			}
		}

		if res.LimitReached {
			if err := s.quota.MarkTotalLimitReached(ctx); err != nil {
				return err
			}
		}

		if !res.HasNextPage || res.NextCursor == "" {
			return nil
		}
		cursor = res.NextCursor
	}
}
