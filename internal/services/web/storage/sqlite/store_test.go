package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	_, path := openTestStore(t)

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()

	var name string
	err = sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = 'pager_sessions'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		t.Fatal("expected pager_sessions table")
	}
	if err != nil {
		t.Fatalf("query table: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	if err := store.PutSnapshot(ctx, webstorage.Snapshot{SessionID: "sess-1", Term: "pan"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	again, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		_ = again.Close()
	}()
	if _, found, err := again.GetSnapshot(ctx, "sess-1"); err != nil || !found {
		t.Fatalf("get after reopen: found=%v err=%v", found, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	updatedAt := time.Now().UTC().Truncate(time.Millisecond)
	want := webstorage.Snapshot{
		SessionID:  "sess-1",
		Term:       "brownie",
		Language:   "es",
		Offset:     10,
		HasMore:    true,
		Phase:      "showing_results",
		ActivePane: "dbpedia",
		UpdatedAt:  updatedAt,
	}
	if err := store.PutSnapshot(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, found, err := store.GetSnapshot(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot")
	}
	if got != want {
		t.Fatalf("snapshot = %+v, want %+v", got, want)
	}

	want.Offset = 20
	want.HasMore = false
	want.Phase = "exhausted"
	if err := store.PutSnapshot(ctx, want); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _, err = store.GetSnapshot(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if got.Offset != 20 || got.HasMore || got.Phase != "exhausted" {
		t.Fatalf("updated snapshot = %+v", got)
	}
}

func TestGetSnapshotMissing(t *testing.T) {
	store, _ := openTestStore(t)
	_, found, err := store.GetSnapshot(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("expected no snapshot")
	}
}

func TestPutSnapshotValidates(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	if err := store.PutSnapshot(ctx, webstorage.Snapshot{}); err == nil {
		t.Fatal("expected error for missing session id")
	}
	if err := store.PutSnapshot(ctx, webstorage.Snapshot{SessionID: "s", Offset: -1}); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestDeleteSnapshotAndExpired(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for id, age := range map[string]time.Duration{"old-1": 3 * time.Hour, "old-2": 4 * time.Hour, "fresh": time.Minute} {
		if err := store.PutSnapshot(ctx, webstorage.Snapshot{SessionID: id, UpdatedAt: now.Add(-age)}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	removed, err := store.DeleteExpired(ctx, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	if err := store.DeleteSnapshot(ctx, "fresh"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := store.GetSnapshot(ctx, "fresh"); found {
		t.Fatal("expected fresh snapshot to be deleted")
	}
}

func TestNilStoreReportsNotConfigured(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, _, err := store.GetSnapshot(context.Background(), "s"); err == nil {
		t.Fatal("expected error from nil store")
	}
}
