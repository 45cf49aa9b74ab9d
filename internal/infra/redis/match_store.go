package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/match"
)

// MatchStore is a Redis-aware implementation of app.MatchStore.
// Notes:
//   - It still keeps a local in-memory map of sessions to reuse the existing
//     in-process broadcast logic.
//   - Redis is used to mark match liveness (and could be extended to share
//     snapshots or route cross-instance pub/sub).
//   - For true distribution you'd pair this with a pub/sub projector that fans out updates.
type MatchStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	matches map[string]*match.Session
}

func NewMatchStore(client *redis.Client, ttl time.Duration) *MatchStore {
	return &MatchStore{
		client:  client,
		ttl:     ttl,
		matches: make(map[string]*match.Session),
	}
}

func (s *MatchStore) Put(id string, session *match.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[id] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(id), "1", s.ttl).Err()
}

func (s *MatchStore) Get(id string) (*match.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.matches[id]
	return session, ok
}

func (s *MatchStore) ReleaseIfDone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.matches[id]
	if !ok {
		return
	}
	if session.Record().Status == domain.MatchCompleted && session.SubscriberCount() == 0 {
		delete(s.matches, id)
		_ = s.client.Del(context.Background(), s.key(id)).Err()
	}
}

func (s *MatchStore) key(id string) string {
	return "league:match:" + id
}
