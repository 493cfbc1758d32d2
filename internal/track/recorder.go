package track

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNothingToSave is returned when a save is attempted on an empty session.
	ErrNothingToSave = errors.New("nothing to save")
	// ErrSaveCancelled is returned when a save is attempted without a name.
	ErrSaveCancelled = errors.New("save cancelled")
)

// Recorder owns the live, unsaved command sequence of the currently open
// tracked session. Mutations are serialized; a record only ever enters the
// sequence through Append.
type Recorder struct {
	library *Library

	mu       sync.Mutex
	records  []CommandRecord
	onUpdate []func()
}

func NewRecorder(library *Library) *Recorder {
	return &Recorder{library: library}
}

// OnUpdate registers a callback fired after every session mutation
// (append, save, discard). Callbacks run outside the recorder lock.
func (r *Recorder) OnUpdate(fn func()) {
	r.mu.Lock()
	r.onUpdate = append(r.onUpdate, fn)
	r.mu.Unlock()
}

// Append pushes a new record with the current timestamp.
func (r *Recorder) Append(command string, accepted bool) {
	r.mu.Lock()
	r.records = append(r.records, CommandRecord{
		Command:   command,
		Timestamp: time.Now().UTC(),
		Accepted:  accepted,
	})
	r.mu.Unlock()

	if accepted {
		slog.Debug("command recorded", "command", command)
	} else {
		slog.Debug("command skipped", "command", command)
	}
	r.fireUpdate()
}

// All returns a copy of every record, accepted or not, in insertion order.
func (r *Recorder) All() []CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Accepted returns the accepted-only sub-sequence in insertion order.
func (r *Recorder) Accepted() []CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Accepted {
			out = append(out, rec)
		}
	}
	return out
}

// History returns the accepted records shaped for list surfaces.
func (r *Recorder) History() []HistoryEntry {
	accepted := r.Accepted()
	entries := make([]HistoryEntry, 0, len(accepted))
	for i, rec := range accepted {
		entries = append(entries, HistoryEntry{
			Label:            rec.Command,
			TimestampDisplay: rec.Timestamp.Local().Format("15:04:05"),
			Index:            i + 1,
		})
	}
	return entries
}

// Save flushes the accepted records into a named recording, adds it to the
// library, and clears the session. An empty session yields ErrNothingToSave;
// an empty name yields ErrSaveCancelled, both without mutating state.
func (r *Recorder) Save(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	if len(r.records) == 0 {
		r.mu.Unlock()
		return ErrNothingToSave
	}
	if name == "" {
		r.mu.Unlock()
		return ErrSaveCancelled
	}
	accepted := make([]CommandRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Accepted {
			accepted = append(accepted, rec)
		}
	}
	r.records = nil
	r.mu.Unlock()

	r.library.Add(ctx, Recording{
		Name:      name,
		Commands:  accepted,
		CreatedAt: time.Now().UTC(),
	})
	r.fireUpdate()
	return nil
}

// Discard clears the session without persisting anything.
func (r *Recorder) Discard() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
	r.fireUpdate()
}

func (r *Recorder) fireUpdate() {
	r.mu.Lock()
	callbacks := make([]func(), len(r.onUpdate))
	copy(callbacks, r.onUpdate)
	r.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}
