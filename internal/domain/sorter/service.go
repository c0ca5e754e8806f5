package sorter

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxSessions = 32
	sessionTTL  = 2 * time.Hour
)

// Service manages concurrent sorting sessions.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func NewService() *Service {
	return &Service{sessions: make(map[string]*session)}
}

// Start creates a session over the given items and returns its initial
// state. Collections of fewer than two items finish immediately.
func (s *Service) Start(items []Item) (*State, error) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("item with empty id")
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	if len(s.sessions) >= maxSessions {
		return nil, fmt.Errorf("too many active sessions")
	}

	sess := newSession(uuid.New().String(), items)
	s.sessions[sess.id] = sess
	log.Debug().Str("session", sess.id).Int("items", len(items)).Msg("Sorting session started")
	return sess.state(), nil
}

// Pick records the winner of the current pair and returns the new state.
func (s *Service) Pick(sessionID, winnerID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}
	if err := sess.pick(winnerID); err != nil {
		return nil, err
	}
	return sess.state(), nil
}

// Get returns the current state of a session.
func (s *Service) Get(sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}
	return sess.state(), nil
}

// Cancel discards a session. Unknown IDs are a no-op.
func (s *Service) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *Service) evictExpiredLocked() {
	cutoff := time.Now().Add(-sessionTTL)
	for id, sess := range s.sessions {
		if sess.createdAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
