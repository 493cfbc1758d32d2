package track

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Library is the in-memory set of completed recordings, mirrored to a
// Store. Persist failures leave the in-memory set updated so the user is
// never silently blocked; only durability is at risk, surfaced as a
// warning.
type Library struct {
	store    Store
	notifier Notifier

	mu         sync.Mutex
	recordings []Recording
	onChange   []func()
}

func NewLibrary(store Store, notifier Notifier) *Library {
	return &Library{store: store, notifier: notifier}
}

// Load initializes the set from storage. A missing store yields an empty set.
func (l *Library) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	recs, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load recordings: %w", err)
	}
	l.mu.Lock()
	l.recordings = recs
	l.mu.Unlock()
	return nil
}

// Add appends a recording and persists it. Duplicate names are allowed and
// both retained.
func (l *Library) Add(ctx context.Context, rec Recording) {
	l.mu.Lock()
	l.recordings = append(l.recordings, rec)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Save(ctx, rec); err != nil {
			slog.Warn("failed to persist recording", "name", rec.Name, "error", err)
			if l.notifier != nil {
				l.notifier.Warn(fmt.Sprintf("Recording %q was kept in memory but could not be persisted: %v", rec.Name, err))
			}
		}
	}
	l.fireChange()
}

// Recordings returns a copy of the set in insertion order.
func (l *Library) Recordings() []Recording {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Recording, len(l.recordings))
	copy(out, l.recordings)
	return out
}

// Find returns the newest recording with the given name.
func (l *Library) Find(name string) (Recording, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.recordings) - 1; i >= 0; i-- {
		if l.recordings[i].Name == name {
			return l.recordings[i], true
		}
	}
	return Recording{}, false
}

// OnChange registers a callback fired after every addition.
func (l *Library) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

func (l *Library) fireChange() {
	l.mu.Lock()
	callbacks := make([]func(), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}
