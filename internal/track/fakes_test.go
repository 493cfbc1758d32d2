package track

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakePrompter answers questions from configurable functions and records
// every call.
type fakePrompter struct {
	mu          sync.Mutex
	choiceFn    func(message string, choices []string) (string, bool)
	textFn      func(prompt string) (string, bool)
	choiceCalls []string
	textCalls   []string
}

func (f *fakePrompter) AskChoice(ctx context.Context, message string, choices []string) (string, bool) {
	f.mu.Lock()
	f.choiceCalls = append(f.choiceCalls, message)
	fn := f.choiceFn
	f.mu.Unlock()
	if fn == nil {
		return "", false
	}
	return fn(message, choices)
}

func (f *fakePrompter) AskText(ctx context.Context, prompt string) (string, bool) {
	f.mu.Lock()
	f.textCalls = append(f.textCalls, prompt)
	fn := f.textFn
	f.mu.Unlock()
	if fn == nil {
		return "", false
	}
	return fn(prompt)
}

func (f *fakePrompter) choiceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.choiceCalls)
}

// fakeNotifier collects notices.
type fakeNotifier struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (f *fakeNotifier) Info(message string) {
	f.mu.Lock()
	f.infos = append(f.infos, message)
	f.mu.Unlock()
}

func (f *fakeNotifier) Warn(message string) {
	f.mu.Lock()
	f.warns = append(f.warns, message)
	f.mu.Unlock()
}

func (f *fakeNotifier) infoList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.infos))
	copy(out, f.infos)
	return out
}

func (f *fakeNotifier) warnList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.warns))
	copy(out, f.warns)
	return out
}

// fakeTerminalSession is a scriptable TerminalSession for manager tests.
type fakeTerminalSession struct {
	mu     sync.Mutex
	events chan SessionEvent
	sent   []string
	cols   int
	rows   int

	closeOnce sync.Once
}

func newFakeTerminalSession() *fakeTerminalSession {
	return &fakeTerminalSession{events: make(chan SessionEvent, 64)}
}

func (s *fakeTerminalSession) SendText(text string) error {
	s.mu.Lock()
	s.sent = append(s.sent, text)
	s.mu.Unlock()
	return nil
}

func (s *fakeTerminalSession) Resize(cols, rows int) error {
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
	return nil
}

func (s *fakeTerminalSession) Events() <-chan SessionEvent {
	return s.events
}

func (s *fakeTerminalSession) Close() error {
	s.closeOnce.Do(func() {
		s.events <- SessionEvent{Kind: EventClosed}
	})
	return nil
}

func (s *fakeTerminalSession) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

// fakeTerminal hands out pre-built sessions and captures the environment
// each open received.
type fakeTerminal struct {
	mu       sync.Mutex
	sessions []*fakeTerminalSession
	envs     []map[string]string
	openErr  error
}

func (f *fakeTerminal) Open(ctx context.Context, env map[string]string) (TerminalSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	s := newFakeTerminalSession()
	f.sessions = append(f.sessions, s)
	f.envs = append(f.envs, env)
	return s, nil
}

func (f *fakeTerminal) lastSession() *fakeTerminalSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
