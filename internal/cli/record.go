package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/anasdev1204/boilterm/internal/term"
	"github.com/anasdev1204/boilterm/internal/track"
)

func newRecordCommand(configPath *string) *cobra.Command {
	var (
		shell           string
		promptTimeoutMS int
		attachDelayMS   int
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Open a tracked shell and record accepted commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !xterm.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("record requires an interactive terminal")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()

			notifier := consoleNotifier{out: os.Stdout}
			env, err := setup(ctx, *configPath, notifier)
			if err != nil {
				return err
			}
			defer env.close()

			if cmd.Flags().Changed("shell") {
				env.cfg.Shell = shell
			}
			if cmd.Flags().Changed("prompt-timeout-ms") {
				env.cfg.PromptTimeoutMS = promptTimeoutMS
			}
			if cmd.Flags().Changed("attach-delay-ms") {
				env.cfg.AttachDelayMS = attachDelayMS
			}

			prompter := newConsolePrompter(os.Stdout)
			backend := term.NewBackend(env.cfg.Shell, "")
			defer backend.Close()
			mgr := track.NewManager(track.ManagerConfig{
				Terminal:      backend,
				Library:       env.library,
				Prompter:      prompter,
				Notifier:      notifier,
				Output:        os.Stdout,
				PromptTimeout: env.cfg.PromptTimeout(),
				AttachDelay:   attachDelay(env.cfg),
				WelcomeText:   welcomeMessage,
			})

			oldState, err := xterm.MakeRaw(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("failed to set raw mode: %w", err)
			}
			defer func() { _ = xterm.Restore(int(os.Stdin.Fd()), oldState) }()

			if err := mgr.Open(ctx); err != nil {
				return err
			}

			resize := func() {
				if cols, rows, err := xterm.GetSize(int(os.Stdout.Fd())); err == nil {
					_ = mgr.Resize(cols, rows)
				}
			}
			resize()
			sigwinch := make(chan os.Signal, 1)
			signal.Notify(sigwinch, syscall.SIGWINCH)
			defer signal.Stop(sigwinch)
			go func() {
				for range sigwinch {
					resize()
				}
			}()

			go pumpStdin(prompter, mgr)

			// The session ends when the shell exits or SIGTERM arrives.
			if err := mgr.Wait(ctx); err != nil {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = mgr.Close(closeCtx)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shell, "shell", "", "shell to open (overrides config)")
	cmd.Flags().IntVar(&promptTimeoutMS, "prompt-timeout-ms", 0, "confirmation prompt timeout in milliseconds (overrides config)")
	cmd.Flags().IntVar(&attachDelayMS, "attach-delay-ms", 0, "delay before command tracking attaches, in milliseconds (overrides config)")
	return cmd
}

// pumpStdin routes keyboard bytes either into the open prompt or through
// to the tracked shell.
func pumpStdin(prompter *consolePrompter, mgr *track.Manager) {
	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			passthrough := make([]byte, 0, n)
			for _, b := range buf[:n] {
				if !prompter.Feed(b) {
					passthrough = append(passthrough, b)
				}
			}
			if len(passthrough) > 0 {
				if sendErr := mgr.Send(string(passthrough)); sendErr != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}
