package state

import (
	"context"
	"sync"
	"time"

	"housing-dashboard/internal/facet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one user's filter state. Sessions never share selections.
type Session struct {
	ID         string
	Selections facet.Selections
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store holds every live session. The dataset is shared elsewhere; only
// selections live here.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session with empty selections
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return s.copyOf(sess)
}

// Get returns a copy of the session, or false when unknown or expired
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, false
	}
	return s.copyOf(sess), true
}

// SetSelections replaces a session's selections
func (s *Store) SetSelections(id string, sel facet.Selections) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Selections = sel.Clone()
	sess.UpdatedAt = s.now()
	return true
}

// Reset clears every facet selection of a session
func (s *Store) Reset(id string) bool {
	return s.SetSelections(id, facet.Reset())
}

// Delete ends a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune removes expired sessions and returns how many were dropped
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor prunes expired sessions every interval until ctx is done
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				logger.Debug("expired sessions pruned", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

func (s *Store) copyOf(sess *Session) *Session {
	out := *sess
	out.Selections = sess.Selections.Clone()
	return &out
}
