package term

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Manager tracks the open PTY sessions of this process so shutdown can
// reap every shell the backend spawned.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a new, empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession spawns a new PTY session and registers it under the given id.
// It returns an error if a session with the same id already exists.
func (m *Manager) CreateSession(id string, argv []string, workDir string, env []string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("term: session %q already exists", id)
	}

	sess, err := newSession(id, argv, workDir, env)
	if err != nil {
		return nil, err
	}

	m.sessions[id] = sess
	return sess, nil
}

// Remove drops a finished session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Close terminates and removes all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.sessions {
		_ = sess.Close()
		delete(m.sessions, id)
	}
}

// newID returns a random 32-character hex identifier.
func newID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
