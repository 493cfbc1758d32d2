package hub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
)

// Hub fans recorder events out to connected websocket clients and routes
// client requests (open/close/input and prompt answers) back to the
// tracker. It doubles as the remote prompt surface: a confirmation
// question is broadcast to every client and the first answer wins.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	token      string

	// Callbacks wired by the serve command.
	OnOpen   func()
	OnClose  func()
	OnInput  func(data string)
	OnResize func(cols, rows int)

	mu      sync.RWMutex
	clients map[string]*Client

	promptMu sync.Mutex
	prompts  map[string]chan string
}

func New(token string) *Hub {
	return &Hub{
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		token:      token,
		clients:    make(map[string]*Client),
		prompts:    make(map[string]chan string),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			go client.writePump(ctx)
			go client.readPump(ctx)
			slog.Info("client connected", "client", client.id, "total", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("client disconnected", "client", client.id, "total", h.ClientCount())

		case data := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- data:
				default:
					slog.Warn("client send buffer full, dropping message", "client", c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || token != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept error", "error", err)
		return
	}

	client := newClient(conn, h)
	select {
	case h.register <- client:
	default:
		slog.Warn("hub not accepting connections")
		conn.Close(websocket.StatusTryAgainLater, "server busy")
	}
}

// Broadcast marshals msg and sends it to every connected client.
func (h *Hub) Broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("error marshaling hub message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case "open":
		if h.OnOpen != nil {
			h.OnOpen()
		}
	case "close":
		if h.OnClose != nil {
			h.OnClose()
		}
	case "input":
		if h.OnInput != nil && msg.Data != "" {
			h.OnInput(msg.Data)
		}
	case "resize":
		if h.OnResize != nil && msg.Cols > 0 && msg.Rows > 0 {
			h.OnResize(msg.Cols, msg.Rows)
		}
	case "prompt_response":
		h.resolvePrompt(msg.ID, msg.Value)
	}
}

func (h *Hub) resolvePrompt(id, value string) {
	h.promptMu.Lock()
	ch, ok := h.prompts[id]
	if ok {
		delete(h.prompts, id)
	}
	h.promptMu.Unlock()
	if ok {
		ch <- value
	}
}

func (h *Hub) openPrompt() (string, chan string, error) {
	id, err := newID()
	if err != nil {
		return "", nil, err
	}
	ch := make(chan string, 1)
	h.promptMu.Lock()
	h.prompts[id] = ch
	h.promptMu.Unlock()
	return id, ch, nil
}

func (h *Hub) abandonPrompt(id string) {
	h.promptMu.Lock()
	delete(h.prompts, id)
	h.promptMu.Unlock()
}

func newID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
