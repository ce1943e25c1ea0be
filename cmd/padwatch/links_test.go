package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/nao1215/padwatch/internal/config"
	"github.com/nao1215/padwatch/internal/database"
	"github.com/nao1215/padwatch/internal/model"
	"github.com/nao1215/padwatch/internal/repo"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLinksCmd(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "pad.example", config.RepoDriverFS, "https://pad.example/index")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := repo.Open(cfg.Repo.Path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"index", "agenda"} {
		if err := r.Store(context.Background(), model.NewLink("pad.example", name), "# "+name); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	t.Run("one url per line", func(t *testing.T) {
		t.Parallel()
		out, err := executeRoot(t, "links", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://pad.example/agenda\nhttps://pad.example/index\n"
		if out != want {
			t.Errorf("expected %q, got %q", want, out)
		}
	})

	t.Run("markdown table", func(t *testing.T) {
		t.Parallel()
		out, err := executeRoot(t, "links", "--markdown", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"## Known pads (2)", "Server", "https://pad.example/agenda"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "pad.example", config.RepoDriverSQLite, "https://pad.example/index")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	db, err := database.Open(cfg.Repo.Path, database.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	link := model.NewLink("pad.example", "index")
	for _, content := range []string{"# v1", "# v2"} {
		if err := db.Store(context.Background(), link, content); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("lists settle events", func(t *testing.T) {
		out, err := executeRoot(t, "history", "https://pad.example/index", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"https://pad.example/index", "created", "updated", "Prior hash"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("pad without history", func(t *testing.T) {
		out, err := executeRoot(t, "history", "https://pad.example/other", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No settle events recorded.") {
			t.Errorf("expected empty history message, got %q", out)
		}
	})

	t.Run("url on unknown server", func(t *testing.T) {
		if _, err := executeRoot(t, "history", "https://other.example/index", "-c", path); err == nil {
			t.Error("expected error for unknown server")
		}
	})
}

func TestHistoryCmdRequiresSQLite(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "pad.example", config.RepoDriverFS, "https://pad.example/index")
	_, err := executeRoot(t, "history", "https://pad.example/index", "-c", path)
	if !errors.Is(err, errHistoryUnsupported) {
		t.Errorf("expected errHistoryUnsupported, got %v", err)
	}
}
