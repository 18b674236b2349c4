// Package storage keeps generation sessions in memory.
// Nothing is written to disk; sessions vanish after the TTL or on restart.
package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/morich/attract-backend/internal/attract/session"
)

// minSweepInterval bounds how often the cleanup loop runs for short TTLs
const minSweepInterval = time.Second

// SessionStore provides in-memory storage for sessions.
// Sessions untouched for longer than the TTL are removed.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store and starts its cleanup loop.
// A non-positive TTL disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*session.Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.cleanupLoop()
	}
	return s
}

// NewSessionID creates a random session ID
func NewSessionID() string {
	return uuid.NewString()
}

// Store adds or replaces a session
func (s *SessionStore) Store(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.sessions[sess.ID()]; ok && prev != sess {
		prev.Close()
	}
	s.sessions[sess.ID()] = sess
}

// Get returns the session with the given ID, or nil
func (s *SessionStore) Get(id string) *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete removes a session and cancels its running generation.
// It reports whether the session existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Close()
	}
	return ok
}

// Len returns the number of stored sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions untouched since before now minus the TTL and
// returns how many were removed
func (s *SessionStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := now.Add(-s.ttl)
	var expired []*session.Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastTouched().Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	return len(expired)
}

// Close stops the cleanup loop and cancels every running generation
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// cleanupLoop periodically removes expired sessions
func (s *SessionStore) cleanupLoop() {
	interval := s.ttl / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-s.stop:
			return
		}
	}
}
