package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	ierrors "shipalloc/internal/errors"
)

func sampleRecord(strategy string, createdAt time.Time) *Record {
	return &Record{
		ID:          uuid.NewString(),
		RunID:       uuid.NewString(),
		Strategy:    strategy,
		Phase:       "done",
		ItemCount:   3,
		Fingerprint: "abc123",
		CreatedAt:   createdAt,
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(Backend("redis"), "")
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !ierrors.IsType(err, ierrors.TypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := sampleRecord("first_available", base)
	newer := sampleRecord("equal_distribution", base.Add(time.Hour))
	for _, rec := range []*Record{older, newer} {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Strategy != "first_available" || got.Fingerprint != "abc123" {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, err := store.Get(ctx, "does-not-exist"); err == nil {
		t.Error("expected error for unknown id")
	} else if !ierrors.IsType(err, ierrors.TypeSource) {
		t.Errorf("expected source error, got %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != newer.ID {
		t.Error("expected newest record first")
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store, err := Open(BackendMemory, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testStore(t, store)
}

func TestFileStore(t *testing.T) {
	store, err := Open(BackendFile, t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testStore(t, store)
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	ctx := context.Background()
	rec := sampleRecord("first_available", time.Now().UTC())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	// A second store over the same directory sees existing records only.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	records, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Errorf("expected the saved record after reopen, got %+v", records)
	}
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := sampleRecord("first_available", time.Now().UTC())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec.Strategy = "mutated"

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Strategy != "first_available" {
		t.Error("store must not share memory with the caller's record")
	}
}
