package track

import (
	"context"
	"time"
)

// CommandRecord is a single observed command. Records are immutable once
// created; rejected commands are kept for audit but excluded from saved
// recordings.
type CommandRecord struct {
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
	Accepted  bool      `json:"accepted"`
}

// Recording is a named, ordered command list produced by saving a session.
type Recording struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Commands  []CommandRecord `json:"commands"`
	CreatedAt time.Time       `json:"created_at"`
}

// HistoryEntry is the read-only view of a recorded command, shaped for
// list surfaces (CLI and websocket clients).
type HistoryEntry struct {
	Label            string `json:"label"`
	TimestampDisplay string `json:"timestamp_display"`
	Index            int    `json:"index"`
}

// Decision is the outcome of a confirmation gate round.
type Decision int

const (
	DecisionRejected Decision = iota
	DecisionAccepted
	DecisionAcceptAll
	DecisionTimedOut
)

func (d Decision) String() string {
	switch d {
	case DecisionAccepted:
		return "accepted"
	case DecisionAcceptAll:
		return "accept_all"
	case DecisionTimedOut:
		return "timed_out"
	default:
		return "rejected"
	}
}

// EventKind distinguishes the events a terminal session delivers.
type EventKind int

const (
	// EventOutput carries raw terminal output for passthrough rendering.
	EventOutput EventKind = iota
	// EventExecStarted reports that the shell began executing a command.
	EventExecStarted
	// EventExecEnded reports that an execution finished with an exit code.
	EventExecEnded
	// EventClosed reports that the shell process exited.
	EventClosed
)

// SessionEvent is a single notification from an open terminal session.
// Handles are unique per execution and never reused.
type SessionEvent struct {
	Kind     EventKind
	Handle   string
	Command  string
	ExitCode int
	Data     string
}

// TerminalSession is one open shell the tracker observes.
type TerminalSession interface {
	SendText(text string) error
	Resize(cols, rows int) error
	Events() <-chan SessionEvent
	Close() error
}

// Terminal opens observed shell sessions. Implemented by term.Backend;
// tests substitute fakes.
type Terminal interface {
	Open(ctx context.Context, env map[string]string) (TerminalSession, error)
}

// Prompter asks the user a question. The boolean result is false when the
// prompt was dismissed or the surface produced no answer.
type Prompter interface {
	AskChoice(ctx context.Context, message string, choices []string) (string, bool)
	AskText(ctx context.Context, prompt string) (string, bool)
}

// Notifier surfaces non-blocking notices to the user.
type Notifier interface {
	Info(message string)
	Warn(message string)
}

// Store persists completed recordings. Persist failures are surfaced as
// warnings by the library, never as fatal errors.
type Store interface {
	Load(ctx context.Context) ([]Recording, error)
	Save(ctx context.Context, rec Recording) error
}
