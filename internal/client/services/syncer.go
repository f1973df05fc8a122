package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vportnov/smallwins/internal/client/client"
	"github.com/vportnov/smallwins/internal/client/models"
	"github.com/vportnov/smallwins/internal/client/repositories/moments"
	"github.com/vportnov/smallwins/internal/logging"
)

const defaultSyncInterval = 3 * time.Second

// Syncer is the polling loop that drains locally unsynced moments. It is
// invoked opportunistically (after load, after a refresh); only one loop
// runs at a time, and starting it again cancels the previous run. For each
// unsynced, non-quota-blocked moment it either links it to an existing
// server record, creates it remotely, or asks for enrichment, until no
// syncable work remains.
type Syncer struct {
	apiClient  client.Client
	moments    moments.Repository
	reconciler *Reconciler
	quota      *Quota
	log        logging.Logger
	interval   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncer(apiClient client.Client, momentRepo moments.Repository,
	reconciler *Reconciler, quota *Quota, log logging.Logger, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Syncer{
		apiClient:  apiClient,
		moments:    momentRepo,
		reconciler: reconciler,
		quota:      quota,
		log:        log,
		interval:   interval,
	}
}

// Start launches the polling loop. A previous loop, if any, is cancelled
// and waited for first, so two loops never run concurrently.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.run(runCtx)
	}()
}

// Stop cancels the running loop and waits for it to exit.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Syncer) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Syncer) run(ctx context.Context) {
	for {
		done, err := s.Cycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			s.log.Error(ctx, "sync cycle failed", "error", err)
		}
		if done {
			s.log.Debug(ctx, "sync loop drained")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// Cycle runs one pass over the unsynced moments. It returns true when no
// syncable work remains: either everything is synced, or whatever is left
// is quota-blocked and only a quota reset or an upgrade can help it. One
// moment's failure never aborts the pass.
func (s *Syncer) Cycle(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unsynced, err := s.moments.GetUnsynced(ctx)
	if err != nil {
		return false, err
	}

	dailyBlocked, err := s.quota.IsDailyLimitReached(ctx)
	if err != nil {
		return false, err
	}

	syncable := make([]*models.Moment, 0, len(unsynced))
	for _, m := range unsynced {
		if m.SyncError == models.SyncErrorDailyLimit && !dailyBlocked {
			// the day rolled over, the record may sync again
			m.SyncError = ""
			if err := s.moments.Update(ctx, m); err != nil {
				return false, err
			}
		}
		if !m.IsQuotaBlocked() {
			syncable = append(syncable, m)
		}
	}
	if len(syncable) == 0 {
		return true, nil
	}

	for _, m := range syncable {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := s.syncMoment(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false, err
			}
			s.log.Warn(ctx, "moment sync failed, will retry next cycle",
				"client_id", m.ClientID, "error", err)
		}
	}

	return false, nil
}

func (s *Syncer) syncMoment(ctx context.Context, m *models.Moment) error {
	if m.ServerID == "" {
		return s.linkOrCreate(ctx, m)
	}
	return s.pollEnrichment(ctx, m)
}

// linkOrCreate handles a moment the server may or may not know about yet:
// look it up by client id, adopt the server identity when found, or create
// it remotely on a 404.
func (s *Syncer) linkOrCreate(ctx context.Context, m *models.Moment) error {
	remote, err := s.apiClient.GetByClientID(ctx, m.ClientID)
	switch {
	case err == nil:
		if remote.Praise != "" {
			_, err := s.reconciler.Reconcile(ctx, *remote)
			return ignoreDeleted(err)
		}
		if remote.ID != "" {
			m.ServerID = remote.ID
			m.SyncError = ""
			if err := s.moments.Update(ctx, m); err != nil {
				return err
			}
		}
		return s.requestEnrichment(ctx, m)

	case errors.Is(err, client.ErrNotFound):
		return s.createRemote(ctx, m)

	default:
		return err
	}
}

func (s *Syncer) createRemote(ctx context.Context, m *models.Moment) error {
	blocked, err := s.quota.ShouldBlockCreation(ctx)
	if err != nil {
		return err
	}
	if blocked {
		return s.markQuotaBlocked(ctx, m)
	}

	req := client.CreateMomentRequest{
		ClientID:    m.ClientID,
		Text:        m.Text,
		SubmittedAt: client.FormatTimestamp(m.SubmittedAt),
		Timezone:    m.Timezone,
		TimeAgo:     backdateMinutes(m),
	}

	remote, err := s.apiClient.Create(ctx, req)
	switch {
	case err == nil:
		if remote.Praise != "" {
			_, err := s.reconciler.Reconcile(ctx, *remote)
			return ignoreDeleted(err)
		}
		if remote.ID != "" {
			m.ServerID = remote.ID
			if err := s.moments.Update(ctx, m); err != nil {
				return err
			}
		}
		// enrichment pending, next cycle will poll for it
		return nil

	case errors.Is(err, client.ErrDailyLimitReached):
		if err := s.quota.MarkDailyLimitReached(ctx); err != nil {
			return err
		}
		m.SyncError = models.SyncErrorDailyLimit
		return s.moments.Update(ctx, m)

	case errors.Is(err, client.ErrTotalLimitReached):
		if err := s.quota.MarkTotalLimitReached(ctx); err != nil {
			return err
		}
		m.SyncError = models.SyncErrorTotalLimit
		return s.moments.Update(ctx, m)

	default:
		return err
	}
}

// markQuotaBlocked records the quota condition on a moment we never even
// attempted, so the loop can terminate instead of spinning on it.
func (s *Syncer) markQuotaBlocked(ctx context.Context, m *models.Moment) error {
	total, err := s.quota.IsTotalLimitReached(ctx)
	if err != nil {
		return err
	}
	if total {
		m.SyncError = models.SyncErrorTotalLimit
	} else {
		m.SyncError = models.SyncErrorDailyLimit
	}
	return s.moments.Update(ctx, m)
}

// pollEnrichment handles a moment that has a server identity but no praise
// yet: fetch current server state, reconcile when praise arrived, otherwise
// nudge the enrichment endpoint.
func (s *Syncer) pollEnrichment(ctx context.Context, m *models.Moment) error {
	remote, err := s.apiClient.GetByServerID(ctx, m.ServerID)
	if err != nil {
		return err
	}

	if remote.Praise != "" {
		_, err := s.reconciler.Reconcile(ctx, *remote)
		return ignoreDeleted(err)
	}
	return s.requestEnrichment(ctx, m)
}

func (s *Syncer) requestEnrichment(ctx context.Context, m *models.Moment) error {
	if m.ServerID == "" {
		return nil
	}
	remote, err := s.apiClient.RequestEnrichment(ctx, m.ServerID)
	if errors.Is(err, client.ErrEnrichInProgress) {
		// the server is on it, poll again next cycle
		return nil
	}
	if err != nil {
		return err
	}

	if remote.Praise != "" {
		_, err := s.reconciler.Reconcile(ctx, *remote)
		return ignoreDeleted(err)
	}
	return nil
}

// backdateMinutes derives the "time ago" the user picked at creation from
// the gap between submission and occurrence.
func backdateMinutes(m *models.Moment) int {
	d := m.SubmittedAt.Sub(m.HappenedAt)
	if d <= 0 {
		return 0
	}
	return int(d.Minutes())
}

func ignoreDeleted(err error) error {
	if errors.Is(err, ErrMomentDeleted) {
		return nil
	}
	return err
}
