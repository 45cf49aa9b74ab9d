package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/match"
)

// PracticeService runs solo drill sessions. A practice session is a
// single-player session stored alongside matches so the transport can address
// both by ID; the player owns it and it launches immediately.
type PracticeService struct {
	matchSvc   *MatchService
	aggregates AggregateStore
}

func NewPracticeService(matchSvc *MatchService, aggregates AggregateStore) *PracticeService {
	return &PracticeService{matchSvc: matchSvc, aggregates: aggregates}
}

// StartPractice draws questions for the filter, registers the session, and
// launches it right away. The returned ID addresses Buzz/Answer/Subscribe on
// the match service.
func (s *PracticeService) StartPractice(ctx context.Context, playerID, teamID string, filter domain.QuestionFilter) (string, error) {
	questions, err := s.matchSvc.drawQuestions(ctx, filter)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	session, err := match.NewPracticeSession(s.matchSvc.clock, s.matchSvc.settings, id, playerID, teamID, questions, s.matchSvc.committer)
	if err != nil {
		return "", err
	}
	session.OnDone(func() { s.matchSvc.matches.ReleaseIfDone(id) })
	s.matchSvc.matches.Put(id, session)
	if err := session.Launch(ctx, playerID); err != nil {
		s.matchSvc.matches.ReleaseIfDone(id)
		return "", err
	}
	return id, nil
}

// PlayerStats returns the player's lifetime aggregate.
func (s *PracticeService) PlayerStats(ctx context.Context, playerID string) (domain.PlayerAggregate, error) {
	return s.aggregates.GetAggregate(ctx, playerID)
}
