package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/padwatch/internal/config"
	"github.com/nao1215/padwatch/internal/database"
	padlog "github.com/nao1215/padwatch/internal/log"
	"github.com/nao1215/padwatch/internal/model"
	"github.com/nao1215/padwatch/internal/repo"
	"github.com/spf13/cobra"
)

// snapshotStore is what every repository driver provides.
type snapshotStore interface {
	Read(ctx context.Context, link model.Link) (string, bool, error)
	Store(ctx context.Context, link model.Link, content string) error
	Links(ctx context.Context) ([]model.Link, error)
	Close() error
}

// fsStore adapts repo.Repo, which holds no open resources, to snapshotStore.
type fsStore struct {
	*repo.Repo
}

func (fsStore) Close() error { return nil }

// loadConfig locates and loads the configuration file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	path, err := config.FindConfigFile(explicit)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'padwatch init' to create one)", err)
	}
	return config.Load(path)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger builds the logger from the log section; --verbose forces debug.
func setupLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Log.Level
	if getVerboseFlag(cmd) {
		level = "debug"
	}
	return padlog.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
}

// openStore opens the snapshot repository selected by repo.driver.
func openStore(cfg config.RepoConfig) (snapshotStore, error) {
	switch cfg.Driver {
	case config.RepoDriverSQLite:
		db, err := database.Open(cfg.Path, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	case config.RepoDriverFS:
		r, err := repo.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open repository: %w", err)
		}
		return fsStore{Repo: r}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidRepoDriver, cfg.Driver)
	}
}
