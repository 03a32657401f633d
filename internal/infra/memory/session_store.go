package memory

import (
	"sync"

	"classdeck-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository with
// a join-code index alongside the primary ID map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
	codes    map[string]string // join code -> session ID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
		codes:    make(map[string]string),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := session.ID()
	if old, ok := s.sessions[id]; ok {
		delete(s.codes, old.Code())
	}
	s.sessions[id] = session
	s.codes[session.Code()] = id
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) GetByCode(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, false
	}
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		delete(s.codes, session.Code())
		delete(s.sessions, sessionID)
	}
}
