package storage

import (
	"context"
	"time"
)

// Snapshot is the persisted pager and tab state of one browser session.
type Snapshot struct {
	SessionID  string
	Term       string
	Language   string
	Offset     int
	HasMore    bool
	Phase      string
	ActivePane string
	UpdatedAt  time.Time
}

// Store persists session snapshots.
type Store interface {
	Close() error
	GetSnapshot(ctx context.Context, sessionID string) (Snapshot, bool, error)
	PutSnapshot(ctx context.Context, snapshot Snapshot) error
	DeleteSnapshot(ctx context.Context, sessionID string) error
	// DeleteExpired removes snapshots last updated before cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
