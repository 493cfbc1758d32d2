package track

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPromptTimeout bounds how long a confirmation prompt stays open
// before the command is auto-accepted.
const DefaultPromptTimeout = 5 * time.Second

// Gate choice labels, surfaced verbatim to prompt implementations.
const (
	ChoiceYes       = "Yes"
	ChoiceNo        = "No"
	ChoiceAcceptAll = "Accept All"
)

// Gate decides whether a successfully executed command should be kept.
// It races the user's answer against a timeout; once a round resolves to
// accept-all, every later round short-circuits without prompting. A gate
// lives exactly as long as one tracked session.
type Gate struct {
	prompter Prompter
	timeout  time.Duration

	mu        sync.Mutex
	acceptAll bool
}

func NewGate(prompter Prompter, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultPromptTimeout
	}
	return &Gate{prompter: prompter, timeout: timeout}
}

// Decide prompts for the given command and returns the outcome. The first
// of {user selection, timeout, ctx cancellation} wins; the loser is
// abandoned without side effects. Absence of an answer is not an error.
func (g *Gate) Decide(ctx context.Context, command string) Decision {
	g.mu.Lock()
	sticky := g.acceptAll
	g.mu.Unlock()
	if sticky {
		return DecisionAcceptAll
	}

	promptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type reply struct {
		choice string
		ok     bool
	}
	replies := make(chan reply, 1)
	go func() {
		choice, ok := g.prompter.AskChoice(
			promptCtx,
			fmt.Sprintf("Save command: %q?", command),
			[]string{ChoiceYes, ChoiceNo, ChoiceAcceptAll},
		)
		replies <- reply{choice: choice, ok: ok}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case r := <-replies:
		if !r.ok {
			// Dismissed without an answer: same policy as a timeout.
			return DecisionTimedOut
		}
		switch r.choice {
		case ChoiceYes:
			return DecisionAccepted
		case ChoiceNo:
			return DecisionRejected
		case ChoiceAcceptAll:
			g.mu.Lock()
			g.acceptAll = true
			g.mu.Unlock()
			return DecisionAcceptAll
		default:
			return DecisionTimedOut
		}
	case <-timer.C:
		return DecisionTimedOut
	case <-ctx.Done():
		return DecisionTimedOut
	}
}

// AcceptAllActive reports whether the sticky accept-all flag is set.
func (g *Gate) AcceptAllActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acceptAll
}
