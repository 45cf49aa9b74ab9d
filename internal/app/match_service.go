package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
	"github.com/issakobayashi1992/Lightning-league/internal/match"
)

// MatchService contains the coach-driven multiplayer use cases: creating a
// match from a question filter, herding the roster, and relaying buzzes and
// answers into the live session.
type MatchService struct {
	clock     clockwork.Clock
	settings  game.Settings
	matches   MatchStore
	questions QuestionRepository
	committer game.Committer

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMatchService(clock clockwork.Clock, settings game.Settings, matches MatchStore, questions QuestionRepository, committer game.Committer) *MatchService {
	return &MatchService{
		clock:     clock,
		settings:  settings,
		matches:   matches,
		questions: questions,
		committer: committer,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateMatch draws a random question set matching the filter and registers a
// waiting match owned by the coach.
func (s *MatchService) CreateMatch(ctx context.Context, coachID, teamID string, filter domain.QuestionFilter) (domain.MatchRecord, error) {
	questions, err := s.drawQuestions(ctx, filter)
	if err != nil {
		return domain.MatchRecord{}, err
	}

	record := domain.MatchRecord{
		ID:        uuid.NewString(),
		CoachID:   coachID,
		TeamID:    teamID,
		Status:    domain.MatchWaiting,
		CreatedAt: s.clock.Now(),
	}
	for _, q := range questions {
		record.QuestionIDs = append(record.QuestionIDs, q.ID)
	}

	session, err := match.NewSession(s.clock, s.settings, record, questions, s.committer)
	if err != nil {
		return domain.MatchRecord{}, err
	}
	session.OnDone(func() { s.matches.ReleaseIfDone(record.ID) })
	s.matches.Put(record.ID, session)
	return record, nil
}

// GetMatch returns the current record of a live match.
func (s *MatchService) GetMatch(matchID string) (domain.MatchRecord, error) {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return domain.MatchRecord{}, domain.ErrMatchNotFound
	}
	return session.Record(), nil
}

// Join adds a player to a waiting match.
func (s *MatchService) Join(_ context.Context, matchID, playerID string) error {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	return session.Join(playerID)
}

// Launch starts the shared question run. Only the owning coach may launch.
func (s *MatchService) Launch(ctx context.Context, matchID, coachID string) error {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	return session.Launch(ctx, coachID)
}

// Cancel ends a match early and releases it from the store once completed.
func (s *MatchService) Cancel(matchID, coachID string) error {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	if err := session.Cancel(coachID); err != nil {
		return err
	}
	s.matches.ReleaseIfDone(matchID)
	return nil
}

// Buzz relays a player's buzz into the live session.
func (s *MatchService) Buzz(matchID, playerID string) (game.BuzzVerdict, error) {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return game.VerdictClosed, domain.ErrMatchNotFound
	}
	return session.Buzz(playerID)
}

// Answer relays the buzz winner's selected answer and reports the outcome.
func (s *MatchService) Answer(matchID, playerID, answer string) (domain.Outcome, error) {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return domain.OutcomePending, domain.ErrMatchNotFound
	}
	return session.Answer(playerID, answer)
}

// Leave detaches a client from a match. Rosters are fixed once launched, so
// leaving only affects retention: a completed match nobody watches anymore is
// dropped from the store.
func (s *MatchService) Leave(matchID string) {
	s.matches.ReleaseIfDone(matchID)
}

// Subscribe returns a channel of match snapshots. The caller must invoke the
// cancel function to avoid leaks, then Leave once done watching.
func (s *MatchService) Subscribe(matchID string) (<-chan match.Snapshot, func(), error) {
	session, ok := s.matches.Get(matchID)
	if !ok {
		return nil, nil, domain.ErrMatchNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// drawQuestions loads the filtered pool and samples up to QuestionsPerSession
// of it in random order.
func (s *MatchService) drawQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	pool, err := s.questions.ListQuestions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestions
	}

	drawn := append([]domain.Question(nil), pool...)
	s.mu.Lock()
	s.rnd.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})
	s.mu.Unlock()

	if len(drawn) > s.settings.QuestionsPerSession {
		drawn = drawn[:s.settings.QuestionsPerSession]
	}
	return drawn, nil
}
