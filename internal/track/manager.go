package track

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const defaultAttachDelay = time.Second

// teardownPromptTimeout bounds the save-vs-discard flow so a vanished
// prompt surface cannot wedge teardown forever.
const teardownPromptTimeout = time.Minute

var (
	// ErrSessionActive is returned by Open while a tracked session exists.
	ErrSessionActive = errors.New("tracked session already active")
	// ErrNoActiveSession is returned by Close when no session is open.
	ErrNoActiveSession = errors.New("no tracked session to close")
)

// Save-vs-discard choice labels used during teardown.
const (
	choiceSave    = "Save"
	choiceDiscard = "Discard"
)

// ManagerConfig wires the lifecycle manager's collaborators.
type ManagerConfig struct {
	Terminal Terminal
	Library  *Library
	Prompter Prompter
	Notifier Notifier

	// Output receives raw terminal output for passthrough rendering.
	// May be nil.
	Output io.Writer

	// PromptTimeout bounds each confirmation prompt; zero means the default.
	PromptTimeout time.Duration
	// AttachDelay is the grace period between opening the shell and
	// attaching the observer, so startup banners are not recorded.
	AttachDelay time.Duration
	// WelcomeText, when non-empty, is exported to the shell as
	// WELCOME_MESSAGE and echoed right after the session opens.
	WelcomeText string
	// Env is added to the tracked shell's environment.
	Env map[string]string
}

// Manager enforces the single-active-session invariant and drives the
// open/observe/teardown lifecycle of the tracked terminal.
type Manager struct {
	terminal Terminal
	library  *Library
	prompter Prompter
	notifier Notifier
	output   io.Writer

	promptTimeout time.Duration
	attachDelay   time.Duration
	welcomeText   string
	env           map[string]string

	mu        sync.Mutex
	active    *activeSession
	onClosed  []func()
	onHistory []func()
}

type activeSession struct {
	session  TerminalSession
	recorder *Recorder
	observer *Observer
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewManager(cfg ManagerConfig) *Manager {
	attach := cfg.AttachDelay
	if attach < 0 {
		attach = 0
	} else if attach == 0 {
		attach = defaultAttachDelay
	}
	return &Manager{
		terminal:      cfg.Terminal,
		library:       cfg.Library,
		prompter:      cfg.Prompter,
		notifier:      cfg.Notifier,
		output:        cfg.Output,
		promptTimeout: cfg.PromptTimeout,
		attachDelay:   attach,
		welcomeText:   cfg.WelcomeText,
		env:           cfg.Env,
	}
}

// Open creates the tracked terminal session and starts observing it. When
// a session is already active it surfaces a soft notice and returns
// ErrSessionActive without creating a second one.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		if m.notifier != nil {
			m.notifier.Info("A tracked session is already open.")
		}
		return ErrSessionActive
	}
	// Reserve the slot before the (possibly slow) terminal open so a rapid
	// second Open cannot race past the invariant.
	placeholder := &activeSession{done: make(chan struct{})}
	m.active = placeholder
	m.mu.Unlock()

	env := make(map[string]string, len(m.env)+1)
	for k, v := range m.env {
		env[k] = v
	}
	if m.welcomeText != "" {
		env["WELCOME_MESSAGE"] = m.welcomeText
	}

	session, err := m.terminal.Open(ctx, env)
	if err != nil {
		m.mu.Lock()
		if m.active == placeholder {
			m.active = nil
		}
		m.mu.Unlock()
		return fmt.Errorf("open tracked session: %w", err)
	}

	recorder := NewRecorder(m.library)
	recorder.OnUpdate(m.fireHistoryUpdated)
	gate := NewGate(m.prompter, m.promptTimeout)
	observer := NewObserver(gate, recorder, m.notifier)

	runCtx, cancel := context.WithCancel(context.Background())
	act := &activeSession{
		session:  session,
		recorder: recorder,
		observer: observer,
		cancel:   cancel,
		done:     placeholder.done,
	}
	m.mu.Lock()
	m.active = act
	m.mu.Unlock()

	if m.welcomeText != "" {
		if err := session.SendText("echo \"$WELCOME_MESSAGE\"\n"); err != nil {
			slog.Debug("welcome message send failed", "error", err)
		}
	}

	go m.run(runCtx, act)
	slog.Info("tracked session opened")
	return nil
}

// Close tears down the active session and waits for the save-vs-discard
// flow to finish. Returns ErrNoActiveSession when idle; calling it twice
// in a row neither double-tears-down nor re-prompts.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	act := m.active
	m.mu.Unlock()
	if act == nil {
		return ErrNoActiveSession
	}
	if act.session != nil {
		_ = act.session.Close()
	}
	select {
	case <-act.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active reports whether a tracked session is open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Send forwards raw input text to the tracked shell.
func (m *Manager) Send(text string) error {
	m.mu.Lock()
	act := m.active
	m.mu.Unlock()
	if act == nil || act.session == nil {
		return ErrNoActiveSession
	}
	return act.session.SendText(text)
}

// Resize changes the tracked terminal's dimensions.
func (m *Manager) Resize(cols, rows int) error {
	m.mu.Lock()
	act := m.active
	m.mu.Unlock()
	if act == nil || act.session == nil {
		return ErrNoActiveSession
	}
	return act.session.Resize(cols, rows)
}

// Wait blocks until the active session (if any) has fully closed.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	act := m.active
	m.mu.Unlock()
	if act == nil {
		return nil
	}
	select {
	case <-act.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// History returns the live session's accepted commands, shaped for list
// surfaces. Empty when no session is open.
func (m *Manager) History() []HistoryEntry {
	m.mu.Lock()
	act := m.active
	m.mu.Unlock()
	if act == nil || act.recorder == nil {
		return []HistoryEntry{}
	}
	return act.recorder.History()
}

// SavedRecordings returns the persisted recording set in insertion order.
func (m *Manager) SavedRecordings() []Recording {
	if m.library == nil {
		return nil
	}
	return m.library.Recordings()
}

// OnSessionClosed registers a callback fired after teardown completes.
func (m *Manager) OnSessionClosed(fn func()) {
	m.mu.Lock()
	m.onClosed = append(m.onClosed, fn)
	m.mu.Unlock()
}

// OnHistoryUpdated registers a callback fired whenever the live history
// changes.
func (m *Manager) OnHistoryUpdated(fn func()) {
	m.mu.Lock()
	m.onHistory = append(m.onHistory, fn)
	m.mu.Unlock()
}

// run is the single dispatch loop for one session. It serializes
// classification: a pending gate decision suspends dispatch, so appends
// happen in completion order by construction.
func (m *Manager) run(ctx context.Context, act *activeSession) {
	var attachCh <-chan time.Time
	attached := false
	if m.attachDelay > 0 {
		attachCh = time.After(m.attachDelay)
	} else {
		attached = true
	}

	for {
		select {
		case <-attachCh:
			attached = true
			attachCh = nil
			slog.Debug("execution observer attached")
		case ev, ok := <-act.session.Events():
			if !ok {
				m.handleClosed(ctx, act)
				return
			}
			switch ev.Kind {
			case EventOutput:
				if m.output != nil {
					_, _ = io.WriteString(m.output, ev.Data)
				}
			case EventExecStarted:
				if attached {
					act.observer.OnStart(ev.Handle, ev.Command)
				}
			case EventExecEnded:
				if attached {
					act.observer.OnEnd(ctx, ev.Handle, ev.ExitCode)
				}
			case EventClosed:
				m.handleClosed(ctx, act)
				return
			}
		case <-ctx.Done():
			m.handleClosed(ctx, act)
			return
		}
	}
}

// handleClosed performs teardown exactly once per session: detach the
// observer, run the save-vs-discard flow, then notify external observers.
func (m *Manager) handleClosed(_ context.Context, act *activeSession) {
	m.mu.Lock()
	if m.active != act {
		m.mu.Unlock()
		return
	}
	m.active = nil
	m.mu.Unlock()

	act.observer.Detach()
	if act.cancel != nil {
		act.cancel()
	}
	// The run loop's context is dead by now; the save-vs-discard prompts
	// get their own bounded one.
	finishCtx, cancel := context.WithTimeout(context.Background(), teardownPromptTimeout)
	defer cancel()
	m.finishSession(finishCtx, act.recorder)

	m.mu.Lock()
	callbacks := make([]func(), len(m.onClosed))
	copy(callbacks, m.onClosed)
	m.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	close(act.done)
	slog.Info("tracked session closed")
}

func (m *Manager) finishSession(ctx context.Context, recorder *Recorder) {
	if len(recorder.All()) == 0 {
		if m.notifier != nil {
			m.notifier.Info("Terminal closed. No commands were saved.")
		}
		recorder.Discard()
		return
	}

	choice, ok := m.prompter.AskChoice(ctx, "Save this recording?", []string{choiceSave, choiceDiscard})
	if !ok || choice != choiceSave {
		recorder.Discard()
		if m.notifier != nil {
			m.notifier.Info("Recording discarded.")
		}
		return
	}

	name, ok := m.prompter.AskText(ctx, "Recording name")
	if !ok {
		name = ""
	}
	accepted := len(recorder.Accepted())
	if err := recorder.Save(ctx, name); err != nil {
		// The session is gone either way; an aborted save during teardown
		// clears it like a discard.
		recorder.Discard()
		if m.notifier != nil {
			m.notifier.Info("Save cancelled. Recording discarded.")
		}
		return
	}
	if m.notifier != nil {
		m.notifier.Info(fmt.Sprintf("Recording %q saved (%d command(s)).", name, accepted))
	}
}

func (m *Manager) fireHistoryUpdated() {
	m.mu.Lock()
	callbacks := make([]func(), len(m.onHistory))
	copy(callbacks, m.onHistory)
	m.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}
