// Package memory keeps session snapshots in process memory.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
)

// Store is a map-backed snapshot store. Snapshots are lost on restart.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]webstorage.Snapshot
	now       func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]webstorage.Snapshot),
		now:       time.Now,
	}
}

// Close drops every snapshot.
func (s *Store) Close() error {
	s.mu.Lock()
	s.snapshots = make(map[string]webstorage.Snapshot)
	s.mu.Unlock()
	return nil
}

// GetSnapshot loads the snapshot for sessionID.
func (s *Store) GetSnapshot(_ context.Context, sessionID string) (webstorage.Snapshot, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return webstorage.Snapshot{}, false, fmt.Errorf("session id is required")
	}
	s.mu.RLock()
	snapshot, ok := s.snapshots[sessionID]
	s.mu.RUnlock()
	return snapshot, ok, nil
}

// PutSnapshot stores snapshot, replacing any earlier one for the session.
func (s *Store) PutSnapshot(_ context.Context, snapshot webstorage.Snapshot) error {
	snapshot.SessionID = strings.TrimSpace(snapshot.SessionID)
	if snapshot.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if snapshot.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = s.now().UTC()
	}
	s.mu.Lock()
	s.snapshots[snapshot.SessionID] = snapshot
	s.mu.Unlock()
	return nil
}

// DeleteSnapshot removes the snapshot for sessionID.
func (s *Store) DeleteSnapshot(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.snapshots, strings.TrimSpace(sessionID))
	s.mu.Unlock()
	return nil
}

// DeleteExpired removes snapshots last updated before cutoff.
func (s *Store) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, snapshot := range s.snapshots {
		if snapshot.UpdatedAt.Before(cutoff) {
			delete(s.snapshots, id)
			removed++
		}
	}
	return removed, nil
}

var _ webstorage.Store = (*Store)(nil)
