package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "local.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKV(t *testing.T) {
	kv := openStore(t).KV()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "users"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "users", `[{"id":"u1"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := kv.Get(ctx, "users")
	if err != nil || !ok || got != `[{"id":"u1"}]` {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
	if err := kv.Delete(ctx, "users"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "users"); ok {
		t.Error("key still present after Delete")
	}
}

func TestBufferOrderingAndRemoval(t *testing.T) {
	s := openStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	items := []Item{
		{ID: "late", UserID: "u1", Entity: EntityBoard, Priority: 3, Timestamp: base.Add(2 * time.Second)},
		{ID: "urgent", UserID: "u2", Entity: EntityBoard, Priority: 1, Timestamp: base.Add(5 * time.Second)},
		{ID: "early", UserID: "u3", Entity: EntityBoard, Priority: 3, Timestamp: base.Add(time.Second)},
	}
	for _, it := range items {
		if err := s.Enqueue(it); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	batch, err := s.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	want := []string{"urgent", "early", "late"}
	for i, id := range want {
		if batch[i].ID != id {
			t.Fatalf("batch[%d] = %s, want %s", i, batch[i].ID, id)
		}
	}

	if err := s.Remove(batch[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// Removal by id works for items without a cursor key.
	if err := s.Remove(Item{ID: "late"}); err != nil {
		t.Fatalf("Remove by id: %v", err)
	}
	if n, _ := s.Size(); n != 1 {
		t.Errorf("size = %d, want 1", n)
	}
}

func TestCleanupAndDiscard(t *testing.T) {
	s := openStore(t)
	now := time.Now()

	for _, it := range []Item{
		{UserID: "u1", Entity: EntityBoard, Timestamp: now.Add(-48 * time.Hour)},
		{UserID: "u1", Entity: EntityBoard, Timestamp: now.Add(-47 * time.Hour)},
		{UserID: "u1", Entity: EntityBoard, Timestamp: now},
		{UserID: "u2", Entity: EntityBoard, Timestamp: now},
	} {
		if err := s.Enqueue(it); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	removed, err := s.Cleanup(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 2 {
		t.Errorf("cleanup removed %d, want 2", removed)
	}

	discarded, err := s.Discard(EntityBoard, "u1")
	if err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if discarded != 1 {
		t.Errorf("discarded %d, want 1", discarded)
	}
	batch, _ := s.GetBatch(10)
	if len(batch) != 1 || batch[0].UserID != "u2" {
		t.Errorf("remaining = %+v", batch)
	}
}

func TestPing(t *testing.T) {
	s := openStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
