package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"classdeck-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live session runtimes stay in a local map; the in-process subscriber
//     broadcast is what replaces the document store's push channel.
//   - Redis holds the join-code index and a liveness marker per session, so
//     codes survive a restart long enough for operators to see what was live
//     (and could be extended to route cross-instance lookups).
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
	codes    map[string]string
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
		codes:    make(map[string]string),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := session.ID()
	code := session.Code()
	if old, ok := s.sessions[id]; ok {
		oldCode := old.Code()
		delete(s.codes, oldCode)
		_ = s.client.Del(context.Background(), s.codeKey(oldCode)).Err()
	}
	s.sessions[id] = session
	s.codes[code] = id
	// best-effort liveness and code index markers
	_ = s.client.Set(context.Background(), s.sessionKey(id), "1", s.ttl).Err()
	_ = s.client.Set(context.Background(), s.codeKey(code), id, s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) GetByCode(code string) (*app.Session, bool) {
	s.mu.RLock()
	id, ok := s.codes[code]
	if !ok {
		s.mu.RUnlock()
		// The runtime may live on this instance under a code written by a
		// previous process; fall back to the Redis index.
		if resolved, err := s.client.Get(context.Background(), s.codeKey(code)).Result(); err == nil {
			return s.Get(resolved)
		}
		return nil, false
	}
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	code := session.Code()
	delete(s.codes, code)
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.sessionKey(sessionID), s.codeKey(code)).Err()
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return "quiz:session:" + sessionID
}

func (s *SessionStore) codeKey(code string) string {
	return "quiz:code:" + code
}
