package hub

import "github.com/anasdev1204/boilterm/internal/track"

// Server-to-client messages.

type OutputMessage struct {
	Type string `json:"type"` // "output"
	Data string `json:"data"`
}

type HistoryMessage struct {
	Type    string               `json:"type"` // "history"
	Entries []track.HistoryEntry `json:"entries"`
}

type RecordingsMessage struct {
	Type string            `json:"type"` // "recordings"
	List []track.Recording `json:"list"`
}

type SessionMessage struct {
	Type  string `json:"type"`  // "session"
	State string `json:"state"` // "opened" | "closed"
}

type NoticeMessage struct {
	Type    string `json:"type"`  // "notice"
	Level   string `json:"level"` // "info" | "warn"
	Message string `json:"message"`
}

type PromptMessage struct {
	Type    string   `json:"type"` // "prompt"
	ID      string   `json:"id"`
	Kind    string   `json:"kind"` // "choice" | "text"
	Message string   `json:"message"`
	Choices []string `json:"choices,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// ClientMessage is every message a client may send.
type ClientMessage struct {
	Type  string `json:"type"` // "open" | "close" | "input" | "resize" | "prompt_response"
	Data  string `json:"data,omitempty"`
	Cols  int    `json:"cols,omitempty"`
	Rows  int    `json:"rows,omitempty"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
}
