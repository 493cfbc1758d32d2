package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/anasdev1204/boilterm/internal/config"
	"github.com/anasdev1204/boilterm/internal/logging"
	"github.com/anasdev1204/boilterm/internal/store"
	"github.com/anasdev1204/boilterm/internal/track"
)

// NewRootCmd wires the boilterm command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "boilterm",
		Short:         "Terminal session recorder for reusable command boilerplates",
		Long:          "boilterm opens a tracked shell, asks after each successful command whether to keep it, and saves the accepted commands as named recordings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/boilterm/config.yaml)")

	root.AddCommand(newRecordCommand(&configPath))
	root.AddCommand(newListCommand(&configPath))
	root.AddCommand(newShowCommand(&configPath))
	root.AddCommand(newServeCommand(&configPath))
	return root
}

// appEnv bundles the pieces every subcommand needs: loaded config, an open
// database, and the recording library hydrated from it.
type appEnv struct {
	cfg     *config.Config
	db      *store.DB
	library *track.Library
}

func setup(ctx context.Context, configPath string, notifier track.Notifier) (*appEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Dir:        cfg.Log.Dir,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	db, err := store.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	library := track.NewLibrary(store.NewRecordingRepo(db.SQL()), notifier)
	if err := library.Load(ctx); err != nil {
		slog.Warn("failed to load saved recordings", "error", err)
	}
	return &appEnv{cfg: cfg, db: db, library: library}, nil
}

// attachDelay maps a configured zero delay to the manager's explicit
// "attach immediately" value.
func attachDelay(cfg *config.Config) time.Duration {
	if d := cfg.AttachDelay(); d > 0 {
		return d
	}
	return -1
}

func (e *appEnv) close() {
	if err := e.db.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
