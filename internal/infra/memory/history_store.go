package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// HistoryStore keeps committed session summaries in memory, keyed by the
// record ID handed back to the game loop.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.SessionSummary
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string]domain.SessionSummary)}
}

func (s *HistoryStore) CommitSession(_ context.Context, summary domain.SessionSummary) (string, error) {
	recordID := uuid.NewString()
	s.mu.Lock()
	s.records[recordID] = summary
	s.mu.Unlock()
	return recordID, nil
}

// GetRecord returns a committed summary by ID.
func (s *HistoryStore) GetRecord(recordID string) (domain.SessionSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.records[recordID]
	return summary, ok
}

// AggregateStore keeps per-player lifetime stats in memory. A player without
// history reads as the zero aggregate.
type AggregateStore struct {
	mu   sync.RWMutex
	aggs map[string]domain.PlayerAggregate
}

func NewAggregateStore() *AggregateStore {
	return &AggregateStore{aggs: make(map[string]domain.PlayerAggregate)}
}

func (s *AggregateStore) GetAggregate(_ context.Context, playerID string) (domain.PlayerAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg, ok := s.aggs[playerID]
	if !ok {
		return domain.PlayerAggregate{PlayerID: playerID}, nil
	}
	return agg, nil
}

func (s *AggregateStore) PutAggregate(_ context.Context, agg domain.PlayerAggregate) error {
	s.mu.Lock()
	s.aggs[agg.PlayerID] = agg
	s.mu.Unlock()
	return nil
}
