package hub

import (
	"context"
	"strings"
)

// AskChoice broadcasts a choice question to every connected client and
// waits for the first answer. It returns false when the context is
// cancelled (the gate's timeout) or no client is connected.
func (h *Hub) AskChoice(ctx context.Context, message string, choices []string) (string, bool) {
	value, ok := h.ask(ctx, "choice", message, choices)
	if !ok {
		return "", false
	}
	// Tolerate case differences from web clients.
	for _, c := range choices {
		if strings.EqualFold(c, value) {
			return c, true
		}
	}
	return "", false
}

// AskText broadcasts a free-text question and waits for the first answer.
func (h *Hub) AskText(ctx context.Context, prompt string) (string, bool) {
	return h.ask(ctx, "text", prompt, nil)
}

func (h *Hub) ask(ctx context.Context, kind, message string, choices []string) (string, bool) {
	if h.ClientCount() == 0 {
		return "", false
	}
	id, ch, err := h.openPrompt()
	if err != nil {
		return "", false
	}
	h.Broadcast(PromptMessage{Type: "prompt", ID: id, Kind: kind, Message: message, Choices: choices})

	select {
	case value := <-ch:
		return value, value != ""
	case <-ctx.Done():
		h.abandonPrompt(id)
		return "", false
	}
}

// Info broadcasts an informational notice.
func (h *Hub) Info(message string) {
	h.Broadcast(NoticeMessage{Type: "notice", Level: "info", Message: message})
}

// Warn broadcasts a warning notice.
func (h *Hub) Warn(message string) {
	h.Broadcast(NoticeMessage{Type: "notice", Level: "warn", Message: message})
}

// Write lets the hub act as the tracked session's output sink.
func (h *Hub) Write(p []byte) (int, error) {
	h.Broadcast(OutputMessage{Type: "output", Data: string(p)})
	return len(p), nil
}
