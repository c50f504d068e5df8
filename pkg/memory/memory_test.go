package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotEmptyForNewUser(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.SnapshotFor(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatalf("SnapshotFor failed: %v", err)
	}
	if !snap.Empty() {
		t.Errorf("Expected empty snapshot for unknown user, got %d turns", len(snap.Turns))
	}
}

func TestSnapshotBoundedAndOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		err := store.Append(ctx, "u-1", Turn{
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	snap, err := store.SnapshotFor(ctx, "u-1", 5)
	if err != nil {
		t.Fatalf("SnapshotFor failed: %v", err)
	}
	if len(snap.Turns) != 5 {
		t.Fatalf("Expected 5 turns, got %d", len(snap.Turns))
	}
	if snap.Turns[0].Content != "turn 3" || snap.Turns[4].Content != "turn 7" {
		t.Errorf("Snapshot not the most recent turns oldest-first: %v", snap.Turns)
	}
	for i := 1; i < len(snap.Turns); i++ {
		if snap.Turns[i].Timestamp.Before(snap.Turns[i-1].Timestamp) {
			t.Errorf("Turns out of order at %d", i)
		}
	}
}

func TestSnapshotIsolatedPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "u-1", Turn{Role: "user", Content: "hola"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	snap, err := store.SnapshotFor(ctx, "u-2", 5)
	if err != nil {
		t.Fatalf("SnapshotFor failed: %v", err)
	}
	if !snap.Empty() {
		t.Errorf("Expected u-2 snapshot to be empty, got %d turns", len(snap.Turns))
	}
}
