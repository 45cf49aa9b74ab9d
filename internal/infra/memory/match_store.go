package memory

import (
	"sync"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/match"
)

// MatchStore is an in-memory implementation of app.MatchStore.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[string]*match.Session
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[string]*match.Session),
	}
}

func (s *MatchStore) Put(id string, session *match.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[id] = session
}

func (s *MatchStore) Get(id string) (*match.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.matches[id]
	return session, ok
}

// ReleaseIfDone drops a completed match once its last subscriber detaches.
func (s *MatchStore) ReleaseIfDone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.matches[id]
	if !ok {
		return
	}
	if session.Record().Status == domain.MatchCompleted && session.SubscriberCount() == 0 {
		delete(s.matches, id)
	}
}
