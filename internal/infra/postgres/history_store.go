package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// HistoryStore persists committed session summaries.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) CommitSession(ctx context.Context, summary domain.SessionSummary) (string, error) {
	recordID := uuid.NewString()
	payload, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_history (id, player_id, team_id, game_type, score, total_attempted, avg_buzz_time, hesitation_count, summary, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		recordID, summary.PlayerID, summary.TeamID, summary.GameType,
		summary.Score, summary.TotalAttempted, summary.AvgBuzzTime,
		summary.HesitationCount, payload, summary.StartedAt, summary.CompletedAt,
	)
	if err != nil {
		return "", fmt.Errorf("commit session: %w", err)
	}
	return recordID, nil
}

// GetRecord returns a committed summary by ID.
func (s *HistoryStore) GetRecord(ctx context.Context, recordID string) (domain.SessionSummary, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT summary FROM match_history WHERE id=$1`, recordID).Scan(&raw)
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("load record: %w", err)
	}
	var summary domain.SessionSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return summary, nil
}
