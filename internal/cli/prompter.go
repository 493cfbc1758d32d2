package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/anasdev1204/boilterm/internal/track"
)

const (
	promptChoice = iota
	promptText
)

type promptReply struct {
	value string
	ok    bool
}

// consolePrompter renders questions inline on the raw terminal and answers
// them from single keystrokes routed through Feed. While a prompt is open,
// input bytes belong to the prompt instead of the tracked shell.
type consolePrompter struct {
	out io.Writer

	mu      sync.Mutex
	open    bool
	kind    int
	choices []string
	buf     []byte
	reply   chan promptReply
}

var _ track.Prompter = (*consolePrompter)(nil)

func newConsolePrompter(out io.Writer) *consolePrompter {
	return &consolePrompter{out: out}
}

func (p *consolePrompter) AskChoice(ctx context.Context, message string, choices []string) (string, bool) {
	ch, ok := p.begin(promptChoice, choices)
	if !ok {
		return "", false
	}
	fmt.Fprintf(p.out, "\r\n%s %s ", message, renderChoices(choices))
	select {
	case r := <-ch:
		return r.value, r.ok
	case <-ctx.Done():
		p.dismiss()
		return "", false
	}
}

func (p *consolePrompter) AskText(ctx context.Context, prompt string) (string, bool) {
	ch, ok := p.begin(promptText, nil)
	if !ok {
		return "", false
	}
	fmt.Fprintf(p.out, "\r\n%s: ", prompt)
	select {
	case r := <-ch:
		return r.value, r.ok
	case <-ctx.Done():
		p.dismiss()
		return "", false
	}
}

func (p *consolePrompter) begin(kind int, choices []string) (chan promptReply, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		// One question at a time; callers treat this as a dismissal.
		return nil, false
	}
	p.open = true
	p.kind = kind
	p.choices = choices
	p.buf = p.buf[:0]
	p.reply = make(chan promptReply, 1)
	return p.reply, true
}

// Feed consumes one input byte when a prompt is open. It reports whether
// the byte was taken; unconsumed bytes go to the tracked shell.
func (p *consolePrompter) Feed(b byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return false
	}

	switch p.kind {
	case promptChoice:
		for _, c := range p.choices {
			if c != "" && b == hotkey(c) {
				fmt.Fprintf(p.out, "%s\r\n", c)
				p.resolveLocked(c, true)
				return true
			}
		}
		if b == 0x1b || b == 0x03 {
			fmt.Fprint(p.out, "\r\n")
			p.resolveLocked("", false)
		}
		// Stray keys are swallowed so they cannot leak into the shell
		// mid-question.
		return true

	case promptText:
		switch {
		case b == '\r' || b == '\n':
			fmt.Fprint(p.out, "\r\n")
			p.resolveLocked(string(p.buf), true)
		case b == 0x7f || b == 0x08:
			if len(p.buf) > 0 {
				p.buf = p.buf[:len(p.buf)-1]
				fmt.Fprint(p.out, "\b \b")
			}
		case b == 0x1b || b == 0x03:
			fmt.Fprint(p.out, "\r\n")
			p.resolveLocked("", false)
		case b >= 0x20:
			p.buf = append(p.buf, b)
			_, _ = p.out.Write([]byte{b})
		}
		return true
	}
	return false
}

func (p *consolePrompter) resolveLocked(value string, ok bool) {
	p.reply <- promptReply{value: value, ok: ok}
	p.open = false
	p.reply = nil
}

func (p *consolePrompter) dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		p.open = false
		p.reply = nil
		fmt.Fprint(p.out, "\r\n")
	}
}

func hotkey(choice string) byte {
	return strings.ToLower(choice[:1])[0]
}

func renderChoices(choices []string) string {
	parts := make([]string, 0, len(choices))
	for _, c := range choices {
		if c == "" {
			continue
		}
		parts = append(parts, "["+strings.ToLower(c[:1])+"]"+c[1:])
	}
	return strings.Join(parts, " / ")
}

// consoleNotifier prints notices inline, raw-mode safe.
type consoleNotifier struct {
	out io.Writer
}

var _ track.Notifier = consoleNotifier{}

func (n consoleNotifier) Info(message string) {
	fmt.Fprintf(n.out, "\r\n%s\r\n", message)
}

func (n consoleNotifier) Warn(message string) {
	fmt.Fprintf(n.out, "\r\n! %s\r\n", message)
}
