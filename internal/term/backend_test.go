package term

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/anasdev1204/boilterm/internal/track"
)

// openTestShell spawns a real bash session with an isolated HOME so no
// user rc files interfere with the integration script.
func openTestShell(t *testing.T) track.TerminalSession {
	t.Helper()

	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	b := NewBackend("bash", "")
	t.Cleanup(b.Close)

	ts, err := b.Open(context.Background(), map[string]string{"HOME": t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Wait for the shell to boot and print its first prompt.
	time.Sleep(500 * time.Millisecond)
	return ts
}

// drainEvents closes the session and collects everything it emitted.
func drainEvents(t *testing.T, ts track.TerminalSession) []track.SessionEvent {
	t.Helper()

	if err := ts.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var events []track.SessionEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ts.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("timed out draining session events")
		}
	}
}

func TestBackendIdlePromptEmitsNoExecutions(t *testing.T) {
	ts := openTestShell(t)

	// Press Enter at an empty prompt a few times. The prompt hook runs on
	// every cycle but must never surface as an execution.
	for i := 0; i < 3; i++ {
		if err := ts.SendText("\n"); err != nil {
			t.Fatalf("SendText: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	for _, ev := range drainEvents(t, ts) {
		if ev.Kind == track.EventExecStarted || ev.Kind == track.EventExecEnded {
			t.Errorf("empty prompt cycle produced execution event %+v", ev)
		}
		if strings.Contains(ev.Command, "__boilterm") {
			t.Errorf("internal hook leaked into event %+v", ev)
		}
	}
}

func TestBackendRecordsFullCommandLine(t *testing.T) {
	ts := openTestShell(t)

	if err := ts.SendText("echo one && echo two\n"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	events := drainEvents(t, ts)

	var started *track.SessionEvent
	var ended *track.SessionEvent
	for i, ev := range events {
		switch ev.Kind {
		case track.EventExecStarted:
			if started == nil {
				started = &events[i]
			}
		case track.EventExecEnded:
			if ended == nil {
				ended = &events[i]
			}
		}
	}

	if started == nil {
		t.Fatalf("no execution start observed, events: %+v", events)
	}
	if got, want := started.Command, "echo one && echo two"; got != want {
		t.Errorf("recorded command = %q, want %q", got, want)
	}
	if ended == nil {
		t.Fatalf("no execution end observed, events: %+v", events)
	}
	if ended.Handle != started.Handle {
		t.Errorf("end handle = %q, want %q", ended.Handle, started.Handle)
	}
	if ended.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", ended.ExitCode)
	}

	var output strings.Builder
	for _, ev := range events {
		if ev.Kind == track.EventOutput {
			output.WriteString(ev.Data)
		}
	}
	for _, want := range []string{"one", "two"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("output missing %q: %q", want, output.String())
		}
	}
}

func TestBackendShellExitDuringOutputBurst(t *testing.T) {
	ts := openTestShell(t)

	// Exit immediately after a burst so pending output races the shutdown.
	if err := ts.SendText("seq 1 5000; exit\n"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	var events []track.SessionEvent
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ts.Events():
			if !ok {
				if len(events) == 0 || events[len(events)-1].Kind != track.EventClosed {
					t.Fatalf("expected closed event last, got: %+v", events)
				}
				return
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("session did not close after shell exit")
		}
	}
}
