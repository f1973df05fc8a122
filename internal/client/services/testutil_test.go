package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vportnov/smallwins/internal/client/client"
	"github.com/vportnov/smallwins/internal/client/repositories/moments"
	"github.com/vportnov/smallwins/internal/client/repositories/settings"
	"github.com/vportnov/smallwins/internal/logging"

	_ "modernc.org/sqlite"
)

var errUnexpectedCall = errors.New("unexpected api call")

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "app.db")
	db, err := client.InitDatabase(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRepos(t *testing.T) (moments.Repository, settings.Repository) {
	t.Helper()
	db := setupDB(t)
	return moments.NewSQLiteRepository(db), settings.NewSQLiteRepository(db)
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeAPI implements client.Client with overridable behavior per call.
// Unset calls fail the operation with errUnexpectedCall.
type fakeAPI struct {
	list          func(ctx context.Context, p client.ListMomentsParams) (*client.ListMomentsResult, error)
	getByServerID func(ctx context.Context, serverID string) (*client.Moment, error)
	getByClientID func(ctx context.Context, clientID string) (*client.Moment, error)
	create        func(ctx context.Context, req client.CreateMomentRequest) (*client.Moment, error)
	enrich        func(ctx context.Context, serverID string) (*client.Moment, error)
	setFavorite   func(ctx context.Context, serverID string, fav bool) error
	deleteFn      func(ctx context.Context, serverID string) error
	restore       func(ctx context.Context, serverID string) (*client.Moment, error)
}

func (f *fakeAPI) Close() error { return nil }

func (f *fakeAPI) List(ctx context.Context, p client.ListMomentsParams) (*client.ListMomentsResult, error) {
	if f.list == nil {
		return nil, errUnexpectedCall
	}
	return f.list(ctx, p)
}

func (f *fakeAPI) GetByServerID(ctx context.Context, serverID string) (*client.Moment, error) {
	if f.getByServerID == nil {
		return nil, errUnexpectedCall
	}
	return f.getByServerID(ctx, serverID)
}

func (f *fakeAPI) GetByClientID(ctx context.Context, clientID string) (*client.Moment, error) {
	if f.getByClientID == nil {
		return nil, errUnexpectedCall
	}
	return f.getByClientID(ctx, clientID)
}

func (f *fakeAPI) Create(ctx context.Context, req client.CreateMomentRequest) (*client.Moment, error) {
	if f.create == nil {
		return nil, errUnexpectedCall
	}
	return f.create(ctx, req)
}

func (f *fakeAPI) RequestEnrichment(ctx context.Context, serverID string) (*client.Moment, error) {
	if f.enrich == nil {
		return nil, errUnexpectedCall
	}
	return f.enrich(ctx, serverID)
}

func (f *fakeAPI) SetFavorite(ctx context.Context, serverID string, fav bool) error {
	if f.setFavorite == nil {
		return errUnexpectedCall
	}
	return f.setFavorite(ctx, serverID, fav)
}

func (f *fakeAPI) Delete(ctx context.Context, serverID string) error {
	if f.deleteFn == nil {
		return errUnexpectedCall
	}
	return f.deleteFn(ctx, serverID)
}

func (f *fakeAPI) Restore(ctx context.Context, serverID string) (*client.Moment, error) {
	if f.restore == nil {
		return nil, errUnexpectedCall
	}
	return f.restore(ctx, serverID)
}
