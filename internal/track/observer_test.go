package track

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestObserver(prompter Prompter, notifier Notifier) (*Observer, *Recorder) {
	recorder := NewRecorder(NewLibrary(nil, notifier))
	gate := NewGate(prompter, time.Second)
	return NewObserver(gate, recorder, notifier), recorder
}

func TestObserverAcceptRecordsCommand(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceYes, true }}
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnStart("h1", "git status")
	obs.OnEnd(context.Background(), "h1", 0)

	all := recorder.All()
	if len(all) != 1 || !all[0].Accepted || all[0].Command != "git status" {
		t.Fatalf("records=%v want one accepted %q", all, "git status")
	}
}

func TestObserverRejectKeepsAuditRecord(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceNo, true }}
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnStart("h1", "cat /etc/passwd")
	obs.OnEnd(context.Background(), "h1", 0)

	all := recorder.All()
	if len(all) != 1 || all[0].Accepted {
		t.Fatalf("records=%v want one rejected record", all)
	}
	if len(recorder.Accepted()) != 0 {
		t.Fatal("rejected command leaked into the accepted view")
	}
}

func TestObserverTimeoutCountsAsAccept(t *testing.T) {
	prompter := &fakePrompter{} // nil choiceFn: every prompt is dismissed
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnStart("h1", "make build")
	obs.OnEnd(context.Background(), "h1", 0)

	all := recorder.All()
	if len(all) != 1 || !all[0].Accepted {
		t.Fatalf("records=%v want an accepted record after a dismissed prompt", all)
	}
}

func TestObserverFailedCommandExcluded(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceYes, true }}
	notifier := &fakeNotifier{}
	obs, recorder := newTestObserver(prompter, notifier)

	obs.OnStart("h1", "make test")
	obs.OnEnd(context.Background(), "h1", 2)

	if got := len(recorder.All()); got != 0 {
		t.Fatalf("records=%d want 0 for a failed command", got)
	}
	if got := prompter.choiceCount(); got != 0 {
		t.Fatalf("prompter asked %d times for a failed command, want 0", got)
	}
	warns := notifier.warnList()
	if len(warns) != 1 || !strings.Contains(warns[0], "exit code 2") {
		t.Fatalf("warns=%v want one mentioning the exit code", warns)
	}
}

func TestObserverUnknownHandleIsNoop(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceYes, true }}
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnEnd(context.Background(), "never-started", 0)

	if got := len(recorder.All()); got != 0 {
		t.Fatalf("records=%d want 0 for an unknown handle", got)
	}
	if got := prompter.choiceCount(); got != 0 {
		t.Fatalf("prompter asked %d times, want 0", got)
	}
}

func TestObserverDetachDropsPending(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceYes, true }}
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnStart("h1", "git push")
	obs.Detach()
	obs.OnEnd(context.Background(), "h1", 0)

	if got := len(recorder.All()); got != 0 {
		t.Fatalf("records=%d after detach, want 0", got)
	}
}

func TestObserverDetachShortCircuitsLateDecision(t *testing.T) {
	release := make(chan struct{})
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) {
		<-release
		return ChoiceYes, true
	}}
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnStart("h1", "git push")
	ended := make(chan struct{})
	go func() {
		obs.OnEnd(context.Background(), "h1", 0)
		close(ended)
	}()

	waitFor(t, func() bool { return prompter.choiceCount() == 1 })
	obs.Detach()
	close(release)
	<-ended

	if got := len(recorder.All()); got != 0 {
		t.Fatalf("records=%d for a decision that resolved after detach, want 0", got)
	}
}

func TestObserverAcceptAllNotifiedOnce(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceAcceptAll, true }}
	notifier := &fakeNotifier{}
	obs, recorder := newTestObserver(prompter, notifier)

	for i, cmd := range []string{"first", "second", "third"} {
		handle := string(rune('a' + i))
		obs.OnStart(handle, cmd)
		obs.OnEnd(context.Background(), handle, 0)
	}

	if got := len(recorder.Accepted()); got != 3 {
		t.Fatalf("accepted=%d want 3", got)
	}
	// Only the first round prompts; the sticky flag covers the rest.
	if got := prompter.choiceCount(); got != 1 {
		t.Fatalf("prompter asked %d times, want 1", got)
	}
	autoNotices := 0
	for _, msg := range notifier.infoList() {
		if strings.Contains(msg, "Auto-accepting") {
			autoNotices++
		}
	}
	if autoNotices != 1 {
		t.Fatalf("auto-accept notice shown %d times, want 1", autoNotices)
	}
}

func TestObserverAppendsInCompletionOrder(t *testing.T) {
	prompter := &fakePrompter{choiceFn: func(string, []string) (string, bool) { return ChoiceYes, true }}
	obs, recorder := newTestObserver(prompter, &fakeNotifier{})

	obs.OnStart("h1", "first")
	obs.OnStart("h2", "second")
	obs.OnEnd(context.Background(), "h2", 0)
	obs.OnEnd(context.Background(), "h1", 0)

	all := recorder.All()
	if len(all) != 2 || all[0].Command != "second" || all[1].Command != "first" {
		t.Fatalf("records=%v want completion order second,first", all)
	}
}
