// Package dialog tracks the short-lived capture conversations: one per user,
// collecting a single free-text value (prefix/suffix) or an image (thumbnail).
// Sessions are explicit in-memory objects with an expiry, so a stale dialog
// can never capture a later unrelated message.
package dialog

import (
	"sync"
	"time"
)

// Kind is the input type a session is waiting for.
type Kind int

const (
	KindText Kind = iota
	KindPhoto
)

// Session is one in-flight capture. ChatID/MessageID point at the menu
// message that entered the dialog, so the settings view can be refreshed
// in place on termination.
type Session struct {
	UserID    int64
	Field     string // prefixe | suffixe | thumbnail
	Kind      Kind
	ChatID    int64
	MessageID int

	startedAt time.Time
}

// Manager holds at most one session per user.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]Session
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{ttl: ttl, sessions: make(map[int64]Session)}
}

// Begin starts a session, replacing any active one for the same user.
// Re-entering a field never stacks sessions.
func (m *Manager) Begin(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.startedAt = time.Now()
	m.sessions[s.UserID] = s
}

// Active returns the user's session if one exists and has not expired.
// An expired session is dropped on access.
func (m *Manager) Active(userID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if m.ttl > 0 && time.Since(s.startedAt) > m.ttl {
		delete(m.sessions, userID)
		return Session{}, false
	}
	return s, true
}

// End terminates the user's session, if any. Safe to call twice.
func (m *Manager) End(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
