package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vportnov/smallwins/internal/client/client"
	"github.com/vportnov/smallwins/internal/client/models"
	"github.com/vportnov/smallwins/internal/client/repositories/moments"
	"github.com/vportnov/smallwins/internal/common"
	"github.com/vportnov/smallwins/internal/logging"
)

// ErrMomentDeleted signals that a server-reported moment matches a local
// deletion tombstone and was therefore not applied.
var ErrMomentDeleted = errors.New("moment deleted locally")

// Reconciler merges server-reported moment state into the local store with
// at-most-one-record-per-identity semantics: lookup by server id first,
// then by client id, update whichever record was found, or create a new
// one. Reconciling the same payload twice converges to the same single
// record.
type Reconciler struct {
	moments moments.Repository
	log     logging.Logger
}

func NewReconciler(momentRepo moments.Repository, log logging.Logger) *Reconciler {
	return &Reconciler{moments: momentRepo, log: log}
}

// Reconcile applies one server-reported moment and returns the resulting
// local record. Returns ErrMomentDeleted when the record was deleted
// locally; a stale in-flight server response must not resurrect it.
func (r *Reconciler) Reconcile(ctx context.Context, remote client.Moment) (*models.Moment, error) {
	clientID := remote.ClientID
	if _, err := uuid.Parse(clientID); err != nil {
		clientID = ""
	}

	dead, err := r.moments.IsTombstoned(ctx, clientID, remote.ID)
	if err != nil {
		return nil, fmt.Errorf("tombstone lookup failed: %w", err)
	}
	if dead {
		return nil, ErrMomentDeleted
	}

	local, err := r.lookup(ctx, remote.ID, clientID)
	if err != nil {
		return nil, err
	}

	if local == nil {
		id := clientID
		if id == "" {
			id = uuid.NewString()
		}
		local = &models.Moment{ClientID: id}
		applyRemote(local, remote)
		if err := r.moments.Insert(ctx, local); err != nil {
			return nil, fmt.Errorf("inserting reconciled moment: %w", err)
		}
		r.log.Debug(ctx, "created moment from server state", "client_id", local.ClientID, "server_id", local.ServerID)
		return local, nil
	}

	applyRemote(local, remote)
	if err := r.moments.Update(ctx, local); err != nil {
		return nil, fmt.Errorf("updating reconciled moment: %w", err)
	}
	r.log.Debug(ctx, "merged server state into moment", "client_id", local.ClientID, "server_id", local.ServerID, "synced", local.IsSynced)
	return local, nil
}

func (r *Reconciler) lookup(ctx context.Context, serverID string, clientID string) (*models.Moment, error) {
	if serverID != "" {
		m, err := r.moments.GetByServerID(ctx, serverID)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
	}
	if clientID != "" {
		m, err := r.moments.GetByClientID(ctx, clientID)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// applyRemote overwrites the local fields with the server's view. Malformed
// timestamps keep the previous value; tags and the favorite flag take the
// wire defaults when absent.
func applyRemote(m *models.Moment, remote client.Moment) {
	if remote.ID != "" {
		m.ServerID = remote.ID
	}
	m.Text = remote.Text
	m.SubmittedAt = client.ParseTimestamp(remote.SubmittedAt, m.SubmittedAt)
	m.HappenedAt = client.ParseTimestamp(remote.HappenedAt, m.HappenedAt)
	m.Timezone = remote.Timezone
	m.Praise = remote.Praise
	m.Action = remote.Action
	if remote.Tags != nil {
		m.Tags = remote.Tags
	} else {
		m.Tags = []string{}
	}
	m.IsFavorite = remote.IsFavorite
	m.RecomputeSynced()

	// The server demonstrably knows this moment, so any terminal create
	// failure recorded earlier no longer applies.
	if m.ServerID != "" {
		m.SyncError = ""
	}
}
