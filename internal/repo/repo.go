// Package repo stores pad snapshots as plain files, one file per pad at
// DIR/{server}/{name}. The layout is easy to inspect, diff and back up with
// ordinary tools.
package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/padwatch/internal/model"
)

// tmpPrefix marks in-flight writes; such files are never listed as pads.
const tmpPrefix = ".padwatch-tmp-"

// Repo implements the crawler snapshot store on the local file system.
type Repo struct {
	root string // absolute path to the repository directory
}

// Open creates the repository directory if needed and returns a Repo rooted
// at it.
func Open(root string) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("repo: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("repo: create root: %w", err)
	}
	return &Repo{root: abs}, nil
}

// Root returns the absolute repository directory.
func (r *Repo) Root() string {
	return r.root
}

// pathFor maps link to its file and rejects any result that escapes the
// repository root.
func (r *Repo) pathFor(link model.Link) (string, error) {
	if link.Server == "" || link.Name == "" ||
		strings.ContainsRune(link.Server, os.PathSeparator) ||
		strings.ContainsRune(link.Name, os.PathSeparator) {
		return "", fmt.Errorf("repo: invalid link %q", link.String())
	}
	abs := filepath.Join(r.root, link.Server, link.Name)
	if !strings.HasPrefix(abs, r.root+string(os.PathSeparator)) ||
		filepath.Dir(filepath.Dir(abs)) != r.root {
		return "", fmt.Errorf("repo: path escapes repository root: %s", link)
	}
	return abs, nil
}

// Read returns the stored content of link.
// The boolean is false when no snapshot exists.
func (r *Repo) Read(_ context.Context, link model.Link) (string, bool, error) {
	p, err := r.pathFor(link)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("repo: read %s: %w", link, err)
	}
	return string(data), true, nil
}

// Store atomically replaces the snapshot of link: tmp file → fsync → rename.
func (r *Repo) Store(_ context.Context, link model.Link, content string) error {
	p, err := r.pathFor(link)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("repo: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("repo: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return fmt.Errorf("repo: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("repo: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repo: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("repo: rename: %w", err)
	}
	success = true
	return nil
}

// Links lists every stored pad, sorted by server then name.
// Files directly under the root and hidden entries are ignored.
func (r *Repo) Links(_ context.Context) ([]model.Link, error) {
	servers, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("repo: list: %w", err)
	}

	links := make([]model.Link, 0)
	for _, server := range servers {
		if !server.IsDir() || strings.HasPrefix(server.Name(), ".") {
			continue
		}
		pads, err := os.ReadDir(filepath.Join(r.root, server.Name()))
		if err != nil {
			return nil, fmt.Errorf("repo: list %s: %w", server.Name(), err)
		}
		for _, pad := range pads {
			if pad.IsDir() || strings.HasPrefix(pad.Name(), tmpPrefix) {
				continue
			}
			links = append(links, model.NewLink(server.Name(), pad.Name()))
		}
	}
	return links, nil
}
