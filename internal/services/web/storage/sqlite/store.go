package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/bakery.search/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
	"github.com/louisbranch/bakery.search/internal/services/web/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for session snapshots.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates a session snapshot store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetSnapshot loads the snapshot for sessionID.
func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (webstorage.Snapshot, bool, error) {
	if s == nil || s.sqlDB == nil {
		return webstorage.Snapshot{}, false, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return webstorage.Snapshot{}, false, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT session_id, term, language, result_offset, has_more, phase, active_pane, updated_at
		 FROM pager_sessions
		 WHERE session_id = ?`,
		sessionID,
	)

	var snapshot webstorage.Snapshot
	var offset int64
	var hasMore int64
	var updatedAt int64
	if err := row.Scan(
		&snapshot.SessionID,
		&snapshot.Term,
		&snapshot.Language,
		&offset,
		&hasMore,
		&snapshot.Phase,
		&snapshot.ActivePane,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webstorage.Snapshot{}, false, nil
		}
		return webstorage.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	snapshot.Offset = int(offset)
	snapshot.HasMore = hasMore != 0
	snapshot.UpdatedAt = unixMillisToTime(updatedAt)
	return snapshot, true, nil
}

// PutSnapshot upserts the snapshot for its session.
func (s *Store) PutSnapshot(ctx context.Context, snapshot webstorage.Snapshot) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	snapshot.SessionID = strings.TrimSpace(snapshot.SessionID)
	if snapshot.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if snapshot.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO pager_sessions (
		    session_id, term, language, result_offset, has_more, phase, active_pane, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		    term = excluded.term,
		    language = excluded.language,
		    result_offset = excluded.result_offset,
		    has_more = excluded.has_more,
		    phase = excluded.phase,
		    active_pane = excluded.active_pane,
		    updated_at = excluded.updated_at`,
		snapshot.SessionID,
		snapshot.Term,
		snapshot.Language,
		int64(snapshot.Offset),
		boolToInt(snapshot.HasMore),
		snapshot.Phase,
		snapshot.ActivePane,
		timeToUnixMillis(snapshot.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// DeleteSnapshot removes the snapshot for sessionID.
func (s *Store) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM pager_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// DeleteExpired removes snapshots last updated before cutoff.
func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM pager_sessions WHERE updated_at < ?`, timeToUnixMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired snapshots: %w", err)
	}
	return n, nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ webstorage.Store = (*Store)(nil)
