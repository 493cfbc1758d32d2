package track

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Observer correlates execution start/end events for one open session,
// classifies completed commands by exit status, and forwards accepted ones
// to the recorder. Appends happen in completion order: the whole
// end-decide-append sequence is serialized per observer.
type Observer struct {
	gate     *Gate
	recorder *Recorder
	notifier Notifier

	// endMu serializes OnEnd so overlapping completions cannot reorder
	// their appends relative to real completion order.
	endMu sync.Mutex

	mu                sync.Mutex
	pending           map[string]string
	detached          bool
	acceptAllNotified bool
}

func NewObserver(gate *Gate, recorder *Recorder, notifier Notifier) *Observer {
	return &Observer{
		gate:     gate,
		recorder: recorder,
		notifier: notifier,
		pending:  make(map[string]string),
	}
}

// OnStart records the pending execution. Handles are unique per execution.
func (o *Observer) OnStart(handle, command string) {
	o.mu.Lock()
	if o.detached {
		o.mu.Unlock()
		return
	}
	o.pending[handle] = command
	o.mu.Unlock()
	slog.Debug("command started", "handle", handle, "command", command)
}

// OnEnd consumes the pending execution for handle and classifies it.
// Unknown handles are a no-op. Failed commands are excluded
// unconditionally; successful ones go through the confirmation gate.
func (o *Observer) OnEnd(ctx context.Context, handle string, exitCode int) {
	o.endMu.Lock()
	defer o.endMu.Unlock()

	o.mu.Lock()
	command, ok := o.pending[handle]
	if ok {
		delete(o.pending, handle)
	}
	detached := o.detached
	o.mu.Unlock()
	if !ok || detached {
		return
	}

	slog.Debug("command ended", "handle", handle, "command", command, "exit_code", exitCode)

	if exitCode != 0 {
		o.notifier.Warn(fmt.Sprintf("Command failed (exit code %d). Not recorded.", exitCode))
		return
	}

	decision := o.gate.Decide(ctx, command)

	// The decision may have resolved after a detach; late deliveries must
	// not append.
	o.mu.Lock()
	detached = o.detached
	o.mu.Unlock()
	if detached {
		return
	}

	switch decision {
	case DecisionAccepted:
		o.recorder.Append(command, true)
	case DecisionAcceptAll:
		o.recorder.Append(command, true)
		o.notifyAcceptAllOnce()
	case DecisionRejected:
		o.recorder.Append(command, false)
	case DecisionTimedOut:
		// Reference behavior: no answer within the window counts as accept.
		o.recorder.Append(command, true)
	}
}

// Detach drops all pending executions and short-circuits any decision that
// resolves later. Safe to call multiple times.
func (o *Observer) Detach() {
	o.mu.Lock()
	o.detached = true
	o.pending = make(map[string]string)
	o.mu.Unlock()
}

func (o *Observer) notifyAcceptAllOnce() {
	o.mu.Lock()
	first := !o.acceptAllNotified
	o.acceptAllNotified = true
	o.mu.Unlock()
	if first {
		o.notifier.Info("Auto-accepting all successful commands")
	}
}
