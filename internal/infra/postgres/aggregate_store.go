package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// AggregateStore keeps per-player lifetime stats in the players table. A
// player without a row reads as the zero aggregate.
type AggregateStore struct {
	pool *pgxpool.Pool
}

func NewAggregateStore(pool *pgxpool.Pool) *AggregateStore {
	return &AggregateStore{pool: pool}
}

func (s *AggregateStore) GetAggregate(ctx context.Context, playerID string) (domain.PlayerAggregate, error) {
	agg := domain.PlayerAggregate{PlayerID: playerID}
	var rawSubjects []byte
	err := s.pool.QueryRow(ctx,
		`SELECT games_played, total_score, total_questions, avg_buzz_time, correct_by_subject FROM players WHERE id=$1`,
		playerID,
	).Scan(&agg.GamesPlayed, &agg.TotalScore, &agg.TotalQuestions, &agg.AvgBuzzTime, &rawSubjects)
	if errors.Is(err, pgx.ErrNoRows) {
		return agg, nil
	}
	if err != nil {
		return domain.PlayerAggregate{}, fmt.Errorf("load aggregate: %w", err)
	}
	if len(rawSubjects) > 0 {
		if err := json.Unmarshal(rawSubjects, &agg.CorrectBySubject); err != nil {
			return domain.PlayerAggregate{}, fmt.Errorf("unmarshal subjects: %w", err)
		}
	}
	return agg, nil
}

func (s *AggregateStore) PutAggregate(ctx context.Context, agg domain.PlayerAggregate) error {
	subjects, err := json.Marshal(agg.CorrectBySubject)
	if err != nil {
		return fmt.Errorf("marshal subjects: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO players (id, games_played, total_score, total_questions, avg_buzz_time, correct_by_subject)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   games_played = EXCLUDED.games_played,
		   total_score = EXCLUDED.total_score,
		   total_questions = EXCLUDED.total_questions,
		   avg_buzz_time = EXCLUDED.avg_buzz_time,
		   correct_by_subject = EXCLUDED.correct_by_subject`,
		agg.PlayerID, agg.GamesPlayed, agg.TotalScore, agg.TotalQuestions, agg.AvgBuzzTime, subjects,
	)
	if err != nil {
		return fmt.Errorf("store aggregate: %w", err)
	}
	return nil
}
