package app

import (
	"context"
	"log"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
	"github.com/issakobayashi1992/Lightning-league/internal/match"
)

var _ game.Committer = (*SummaryCommitter)(nil)

// MatchStore abstracts where live match and practice sessions are tracked
// (in-memory, Redis-backed, etc).
type MatchStore interface {
	Put(id string, session *match.Session)
	Get(id string) (*match.Session, bool)
	ReleaseIfDone(id string)
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}

// HistoryStore persists completed session summaries.
type HistoryStore interface {
	CommitSession(ctx context.Context, summary domain.SessionSummary) (string, error)
}

// AggregateStore reads and writes per-player lifetime statistics.
type AggregateStore interface {
	GetAggregate(ctx context.Context, playerID string) (domain.PlayerAggregate, error)
	PutAggregate(ctx context.Context, agg domain.PlayerAggregate) error
}

// SummaryCommitter writes the history record and folds the summary into the
// player's lifetime aggregate. The history write is authoritative; a failed
// aggregate update is logged and retried on the next session's fold of stale
// state, it never fails the commit.
type SummaryCommitter struct {
	history    HistoryStore
	aggregates AggregateStore
}

func NewSummaryCommitter(history HistoryStore, aggregates AggregateStore) *SummaryCommitter {
	return &SummaryCommitter{history: history, aggregates: aggregates}
}

func (c *SummaryCommitter) CommitSession(ctx context.Context, summary domain.SessionSummary) (string, error) {
	recordID, err := c.history.CommitSession(ctx, summary)
	if err != nil {
		return "", err
	}

	agg, err := c.aggregates.GetAggregate(ctx, summary.PlayerID)
	if err != nil {
		log.Printf("aggregate read for %s failed: %v", summary.PlayerID, err)
		return recordID, nil
	}
	if err := c.aggregates.PutAggregate(ctx, agg.Fold(summary)); err != nil {
		log.Printf("aggregate write for %s failed: %v", summary.PlayerID, err)
	}
	return recordID, nil
}
