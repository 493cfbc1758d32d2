package term

import (
	"context"
	"fmt"
	"os"

	"github.com/anasdev1204/boilterm/internal/track"
)

// Backend opens PTY-backed tracked shells and adapts their event stream to
// the tracker's terminal interface.
type Backend struct {
	shell   string
	workDir string
	manager *Manager
}

// NewBackend creates a Backend spawning the given shell. An empty shell
// falls back to $SHELL and then /bin/bash.
func NewBackend(shell, workDir string) *Backend {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}
	return &Backend{
		shell:   shell,
		workDir: workDir,
		manager: NewManager(),
	}
}

// Open spawns an interactive shell booted from the shell-integration rc
// file, with the given variables added to its environment.
func (b *Backend) Open(_ context.Context, env map[string]string) (track.TerminalSession, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	rcPath, err := writeIntegrationFile(id)
	if err != nil {
		return nil, err
	}

	envSlice := os.Environ()
	for k, v := range env {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", k, v))
	}

	argv := []string{b.shell, "--rcfile", rcPath, "-i"}
	sess, err := b.manager.CreateSession(id, argv, b.workDir, envSlice)
	if err != nil {
		_ = os.Remove(rcPath)
		return nil, err
	}

	ts := &trackedSession{
		session: sess,
		events:  make(chan track.SessionEvent, 1024),
		cleanup: func() {
			b.manager.Remove(id)
			_ = os.Remove(rcPath)
		},
	}
	go ts.forward()
	return ts, nil
}

// Close terminates all sessions opened by this backend.
func (b *Backend) Close() {
	b.manager.Close()
}

// trackedSession adapts a *Session to track.TerminalSession.
type trackedSession struct {
	session *Session
	events  chan track.SessionEvent
	cleanup func()
}

// forward translates session events for the tracker. When the underlying
// channel closes it closes the adapted one, unregisters the session, and
// removes the rc file.
func (t *trackedSession) forward() {
	for ev := range t.session.Events() {
		switch ev.Type {
		case EventOutput:
			t.events <- track.SessionEvent{Kind: track.EventOutput, Data: ev.Data}
		case EventExecStart:
			t.events <- track.SessionEvent{Kind: track.EventExecStarted, Handle: ev.Handle, Command: ev.Command}
		case EventExecEnd:
			t.events <- track.SessionEvent{Kind: track.EventExecEnded, Handle: ev.Handle, ExitCode: ev.ExitCode}
		case EventClosed:
			t.events <- track.SessionEvent{Kind: track.EventClosed}
		}
	}
	close(t.events)
	t.cleanup()
}

func (t *trackedSession) SendText(text string) error {
	_, err := t.session.Write([]byte(text))
	return err
}

func (t *trackedSession) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("term: invalid size %dx%d", cols, rows)
	}
	return t.session.Resize(uint16(cols), uint16(rows))
}

func (t *trackedSession) Events() <-chan track.SessionEvent {
	return t.events
}

func (t *trackedSession) Close() error {
	return t.session.Close()
}
