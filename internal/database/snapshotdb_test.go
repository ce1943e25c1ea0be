package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/padwatch/internal/fingerprint"
	"github.com/nao1215/padwatch/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SnapshotDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		link := model.NewLink("pad.example", "doc1")

		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := db.Store(context.Background(), link, "persisted"); err != nil {
			t.Fatalf("failed to store: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		content, ok, err := db.Read(context.Background(), link)
		if err != nil || !ok || content != "persisted" {
			t.Errorf("expected persisted snapshot, got %q ok=%v err=%v", content, ok, err)
		}
	})
}

// TestSnapshots tests Read, Store and Links.
func TestSnapshots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doc1 := model.NewLink("pad.example", "doc1")
	doc2 := model.NewLink("pad.example:8443", "doc2")

	t.Run("missing snapshot is absent", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		content, ok, err := db.Read(ctx, doc1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || content != "" {
			t.Errorf("expected absent snapshot, got %q", content)
		}
	})

	t.Run("store replaces content", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.Store(ctx, doc1, "v1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := db.Store(ctx, doc1, "v2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, ok, err := db.Read(ctx, doc1)
		if err != nil || !ok {
			t.Fatalf("expected snapshot, got ok=%v err=%v", ok, err)
		}
		if content != "v2" {
			t.Errorf("expected v2, got %q", content)
		}
	})

	t.Run("empty content is a snapshot", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.Store(ctx, doc1, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, ok, err := db.Read(ctx, doc1)
		if err != nil || !ok {
			t.Errorf("expected empty snapshot to exist, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("links in first-stored order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		for _, l := range []model.Link{doc2, doc1, doc2} {
			if err := db.Store(ctx, l, "x"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		links, err := db.Links(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 2 || links[0] != doc2 || links[1] != doc1 {
			t.Errorf("expected [doc2 doc1], got %v", links)
		}
	})
}

// TestHistory tests the settle history.
func TestHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return fixed }

	link := model.NewLink("pad.example", "doc1")
	if err := db.Store(ctx, link, "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.Store(ctx, link, "v2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := db.History(ctx, link)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 settles, got %d", len(history))
	}

	if !history[0].Created() {
		t.Error("expected first settle to be a creation")
	}
	if history[1].Created() {
		t.Error("expected second settle to be an update")
	}
	if history[1].PriorHash != fingerprint.Of("v1").String() {
		t.Errorf("expected prior hash of v1, got %s", history[1].PriorHash)
	}
	if history[1].Hash != fingerprint.Of("v2").String() {
		t.Errorf("expected hash of v2, got %s", history[1].Hash)
	}
	if !history[0].StoredAt.Equal(fixed) {
		t.Errorf("expected stored at %v, got %v", fixed, history[0].StoredAt)
	}
}

// TestParseTimestamp tests parsing different timestamp formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2024-05-01 12:00:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-05-01T12:00:00Z", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-05-01T12:00:00.5Z", time.Date(2024, 5, 1, 12, 0, 0, 500000000, time.UTC)},
		{"not a time", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
