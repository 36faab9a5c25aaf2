package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/mystock/internal/models"
)

type session struct {
	mu   sync.Mutex // serializes turns
	data models.ChatSession
}

// SessionManager holds process-scoped chat sessions keyed by uuid
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// NewSessionManager creates an empty manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Create starts a new empty session and returns a copy of it
func (m *SessionManager) Create() models.ChatSession {
	now := m.now().UTC()
	s := &session{data: models.ChatSession{
		ID:        uuid.NewString(),
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}}

	m.mu.Lock()
	m.sessions[s.data.ID] = s
	m.mu.Unlock()

	return snapshot(&s.data)
}

// Get returns a copy of the session
func (m *SessionManager) Get(id string) (models.ChatSession, error) {
	s, err := m.lookup(id)
	if err != nil {
		return models.ChatSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(&s.data), nil
}

// Delete drops the session
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return &models.NotFoundError{Entity: "session", ID: id}
	}
	delete(m.sessions, id)
	return nil
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) lookup(id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &models.NotFoundError{Entity: "session", ID: id}
	}
	return s, nil
}

// withSession runs fn while holding the session's turn lock
func (m *SessionManager) withSession(id string, fn func(*models.ChatSession) error) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&s.data); err != nil {
		return err
	}
	s.data.UpdatedAt = m.now().UTC()
	return nil
}

func snapshot(s *models.ChatSession) models.ChatSession {
	out := *s
	out.Messages = make([]models.Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
