package moments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vportnov/smallwins/internal/client/models"
	"github.com/vportnov/smallwins/internal/common"
	"github.com/vportnov/smallwins/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). Timestamps are stored as RFC3339 text in UTC, tags as JSON.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const momentColumns = `client_id, server_id, text, submitted_at, happened_at, timezone,
	praise, action, tags, is_favorite, is_synced, sync_error`

func (r *SQLiteRepository) Insert(ctx context.Context, m *models.Moment) error {
	query := `INSERT INTO moments (` + momentColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query,
		m.ClientID, m.ServerID, m.Text,
		encodeTime(m.SubmittedAt), encodeTime(m.HappenedAt), m.Timezone,
		m.Praise, m.Action, tags, m.IsFavorite, m.IsSynced, m.SyncError)
	if err != nil {
		return fmt.Errorf("failed to insert moment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, m *models.Moment) error {
	query := `UPDATE moments SET server_id=?, text=?, submitted_at=?, happened_at=?,
			timezone=?, praise=?, action=?, tags=?, is_favorite=?, is_synced=?, sync_error=?
			WHERE client_id=?`
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query,
		m.ServerID, m.Text,
		encodeTime(m.SubmittedAt), encodeTime(m.HappenedAt), m.Timezone,
		m.Praise, m.Action, tags, m.IsFavorite, m.IsSynced, m.SyncError,
		m.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update moment: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByClientID(ctx context.Context, clientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM moments WHERE client_id=?`, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete moment: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Moment, error) {
	query := `SELECT ` + momentColumns + ` FROM moments ORDER BY happened_at DESC, client_id`
	return r.queryMoments(ctx, query)
}

func (r *SQLiteRepository) GetFavorites(ctx context.Context) ([]models.Moment, error) {
	query := `SELECT ` + momentColumns + ` FROM moments WHERE is_favorite=1 ORDER BY happened_at DESC, client_id`
	return r.queryMoments(ctx, query)
}

func (r *SQLiteRepository) GetByClientID(ctx context.Context, clientID string) (*models.Moment, error) {
	query := `SELECT ` + momentColumns + ` FROM moments WHERE client_id=?`
	return r.queryMoment(ctx, query, clientID)
}

func (r *SQLiteRepository) GetByServerID(ctx context.Context, serverID string) (*models.Moment, error) {
	if serverID == "" {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + momentColumns + ` FROM moments WHERE server_id=?`
	return r.queryMoment(ctx, query, serverID)
}

func (r *SQLiteRepository) GetUnsynced(ctx context.Context) ([]*models.Moment, error) {
	query := `SELECT ` + momentColumns + ` FROM moments WHERE is_synced=0 ORDER BY submitted_at, client_id`
	rows, err := r.queryMoments(ctx, query)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Moment, 0, len(rows))
	for i := range rows {
		result = append(result, &rows[i])
	}
	return result, nil
}

func (r *SQLiteRepository) ClearQuotaSyncErrors(ctx context.Context) error {
	query := `UPDATE moments SET sync_error='' WHERE sync_error IN (?, ?)`
	_, err := r.db.ExecContext(ctx, query, models.SyncErrorDailyLimit, models.SyncErrorTotalLimit)
	if err != nil {
		return fmt.Errorf("failed to clear quota sync errors: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddTombstone(ctx context.Context, clientID string, serverID string) error {
	query := `INSERT INTO tombstones (client_id, server_id, deleted_at) VALUES (?, ?, ?)
			ON CONFLICT(client_id) DO UPDATE SET server_id = excluded.server_id`
	_, err := r.db.ExecContext(ctx, query, clientID, serverID, encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to add tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveTombstone(ctx context.Context, clientID string, serverID string) error {
	query := `DELETE FROM tombstones WHERE client_id=? OR (server_id<>'' AND server_id=?)`
	_, err := r.db.ExecContext(ctx, query, clientID, serverID)
	if err != nil {
		return fmt.Errorf("failed to remove tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IsTombstoned(ctx context.Context, clientID string, serverID string) (bool, error) {
	query := `SELECT COUNT(*) FROM tombstones WHERE client_id=? OR (server_id<>'' AND server_id=?)`
	var n int
	if err := r.db.QueryRowContext(ctx, query, clientID, serverID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check tombstone: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) queryMoments(ctx context.Context, query string, args ...any) ([]models.Moment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select moments: %w", err)
	}
	defer rows.Close()

	var result []models.Moment
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) queryMoment(ctx context.Context, query string, args ...any) (*models.Moment, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	m, err := scanMoment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMoment(s scanner) (*models.Moment, error) {
	var m models.Moment
	var submittedAt, happenedAt, tags string
	if err := s.Scan(&m.ClientID, &m.ServerID, &m.Text,
		&submittedAt, &happenedAt, &m.Timezone,
		&m.Praise, &m.Action, &tags,
		&m.IsFavorite, &m.IsSynced, &m.SyncError); err != nil {
		return nil, err
	}

	m.SubmittedAt = decodeTime(submittedAt)
	m.HappenedAt = decodeTime(happenedAt)

	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return &m, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
