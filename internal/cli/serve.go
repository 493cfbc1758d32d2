package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anasdev1204/boilterm/internal/config"
	"github.com/anasdev1204/boilterm/internal/hub"
	"github.com/anasdev1204/boilterm/internal/logging"
	"github.com/anasdev1204/boilterm/internal/server"
	"github.com/anasdev1204/boilterm/internal/store"
	"github.com/anasdev1204/boilterm/internal/term"
	"github.com/anasdev1204/boilterm/internal/track"
)

func newServeCommand(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the tracked shell to web clients over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			logging.Init(logging.Config{
				Dir:        cfg.Log.Dir,
				Level:      cfg.Log.Level,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})

			// The hub doubles as the session's prompter, notifier, and
			// output sink.
			h := hub.New(cfg.Token)

			db, err := store.Open(ctx, cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer db.Close()

			library := track.NewLibrary(store.NewRecordingRepo(db.SQL()), h)
			if err := library.Load(ctx); err != nil {
				slog.Warn("failed to load saved recordings", "error", err)
			}

			backend := term.NewBackend(cfg.Shell, "")
			defer backend.Close()
			mgr := track.NewManager(track.ManagerConfig{
				Terminal:      backend,
				Library:       library,
				Prompter:      h,
				Notifier:      h,
				Output:        h,
				PromptTimeout: cfg.PromptTimeout(),
				AttachDelay:   attachDelay(cfg),
				WelcomeText:   welcomeMessage,
			})

			h.OnOpen = func() {
				if err := mgr.Open(ctx); err != nil {
					if !errors.Is(err, track.ErrSessionActive) {
						h.Broadcast(hub.ErrorMessage{Type: "error", Message: err.Error()})
					}
					return
				}
				h.Broadcast(hub.SessionMessage{Type: "session", State: "opened"})
			}
			h.OnClose = func() {
				// Close blocks on the save-vs-discard prompts, which are
				// answered over the same websocket read loop, so it cannot
				// run inline.
				go func() {
					closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
					defer cancel()
					if err := mgr.Close(closeCtx); err != nil && !errors.Is(err, track.ErrNoActiveSession) {
						slog.Warn("session close failed", "error", err)
					}
				}()
			}
			h.OnInput = func(data string) {
				if err := mgr.Send(data); err != nil && !errors.Is(err, track.ErrNoActiveSession) {
					slog.Debug("input dropped", "error", err)
				}
			}
			h.OnResize = func(cols, rows int) {
				_ = mgr.Resize(cols, rows)
			}

			mgr.OnHistoryUpdated(func() {
				h.Broadcast(hub.HistoryMessage{Type: "history", Entries: mgr.History()})
			})
			mgr.OnSessionClosed(func() {
				h.Broadcast(hub.SessionMessage{Type: "session", State: "closed"})
			})
			library.OnChange(func() {
				h.Broadcast(hub.RecordingsMessage{Type: "recordings", List: library.Recordings()})
			})

			go h.Run(ctx)

			fmt.Printf("\nboilterm running at ws://localhost:%d/ws?token=%s\n\n", cfg.Port, cfg.Token)

			srv := server.New(cfg, h, mgr)
			if err := srv.Start(ctx); err != nil {
				return err
			}

			// Give an open session a chance to finish its teardown flow.
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := mgr.Close(closeCtx); err != nil && !errors.Is(err, track.ErrNoActiveSession) {
				slog.Warn("session close failed", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
