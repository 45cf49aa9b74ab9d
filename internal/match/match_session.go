package match

import (
	"context"
	"log"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
)

// Snapshot is the eventually-consistent view of a match pushed to every
// subscribed client. Clients may briefly diverge by one reveal tick; the
// server-side state is authoritative.
type Snapshot struct {
	MatchID   string                 `json:"matchId"`
	Status    domain.MatchStatus     `json:"status"`
	PlayerIDs []string               `json:"playerIds"`
	Question  *game.Snapshot         `json:"question,omitempty"`
	Summary   *domain.SessionSummary `json:"summary,omitempty"`
}

// Session coordinates one match: roster joins while waiting, a forward-only
// status transition driven by the coach, and a shared session runner whose
// question state is replicated to all subscribers. The record is mutated only
// by single-writer operations; joins are idempotent appends and the status
// never moves backwards.
type Session struct {
	clock    clockwork.Clock
	settings game.Settings
	gameType string

	mu          sync.RWMutex
	record      domain.MatchRecord
	questions   []domain.Question
	runner      *game.Runner
	question    *game.Snapshot
	summary     *domain.SessionSummary
	cancelRun   context.CancelFunc
	committer   game.Committer
	subscribers map[chan Snapshot]struct{}
	onDone      func()
}

// NewSession wraps a freshly created match record. The question list is fixed
// at creation and shared by every participant.
func NewSession(clock clockwork.Clock, settings game.Settings, record domain.MatchRecord, questions []domain.Question, committer game.Committer) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return &Session{
		clock:       clock,
		settings:    settings,
		gameType:    "match",
		record:      record,
		questions:   questions,
		committer:   committer,
		subscribers: make(map[chan Snapshot]struct{}),
	}, nil
}

// NewPracticeSession builds a solo session that reuses the match machinery:
// the player is both coach and sole roster member, so the transport can treat
// practice and match uniformly. Summaries commit with the "practice" game
// type.
func NewPracticeSession(clock clockwork.Clock, settings game.Settings, id, playerID, teamID string, questions []domain.Question, committer game.Committer) (*Session, error) {
	record := domain.MatchRecord{
		ID:        id,
		CoachID:   playerID,
		TeamID:    teamID,
		Status:    domain.MatchWaiting,
		PlayerIDs: []string{playerID},
	}
	for _, q := range questions {
		record.QuestionIDs = append(record.QuestionIDs, q.ID)
	}
	session, err := NewSession(clock, settings, record, questions, committer)
	if err != nil {
		return nil, err
	}
	session.gameType = "practice"
	return session, nil
}

// OnDone registers a callback fired once the match reaches its terminal
// status, even when nobody is subscribed anymore. The store uses it to drop
// sessions abandoned mid-run.
func (s *Session) OnDone(fn func()) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

// Record returns a snapshot copy of the match record.
func (s *Session) Record() domain.MatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record := s.record
	record.PlayerIDs = append([]string(nil), s.record.PlayerIDs...)
	return record
}

// Join appends a player to the roster. Joining twice is a no-op; joining a
// match that already launched is rejected.
func (s *Session) Join(playerID string) error {
	s.mu.Lock()
	if s.record.Status != domain.MatchWaiting {
		s.mu.Unlock()
		return domain.ErrMatchNotJoinable
	}
	if !s.record.HasPlayer(playerID) {
		s.record.PlayerIDs = append(s.record.PlayerIDs, playerID)
	}
	s.mu.Unlock()
	s.broadcast()
	return nil
}

// Launch moves the match from waiting to active and starts the shared runner.
// Only the owning coach may launch, and at least one player must have joined.
func (s *Session) Launch(ctx context.Context, coachID string) error {
	s.mu.Lock()
	if coachID != s.record.CoachID {
		s.mu.Unlock()
		return domain.ErrNotCoach
	}
	if s.record.Status != domain.MatchWaiting {
		s.mu.Unlock()
		return nil // forward-only; repeated launches are no-ops
	}
	if len(s.record.PlayerIDs) == 0 {
		s.mu.Unlock()
		return domain.ErrEmptyRoster
	}

	runner, err := game.NewRunner(s.clock, s.settings, s.questions, s.record.PlayerIDs[0], s.record.TeamID, s.gameType, s.committer, s.onQuestionChange)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.record.Status = domain.MatchActive
	s.runner = runner
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	s.mu.Unlock()
	s.broadcast()

	go s.drive(runCtx, runner)
	return nil
}

// Cancel completes the match early. Only the coach may cancel; cancelling a
// completed match is a no-op.
func (s *Session) Cancel(coachID string) error {
	s.mu.Lock()
	if coachID != s.record.CoachID {
		s.mu.Unlock()
		return domain.ErrNotCoach
	}
	if s.record.Status == domain.MatchCompleted {
		s.mu.Unlock()
		return nil
	}
	s.record.Status = domain.MatchCompleted
	cancel := s.cancelRun
	done := s.onDone
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.broadcast()
	// Without a running drive goroutine nothing else reports completion.
	if cancel == nil && done != nil {
		done()
	}
	return nil
}

// Buzz forwards a roster player's attempt to the authoritative arbiter.
func (s *Session) Buzz(playerID string) (game.BuzzVerdict, error) {
	s.mu.RLock()
	runner := s.runner
	onRoster := s.record.HasPlayer(playerID)
	s.mu.RUnlock()
	if !onRoster {
		return game.VerdictClosed, domain.ErrPlayerNotInMatch
	}
	if runner == nil {
		return game.VerdictClosed, nil
	}
	return runner.Buzz(playerID), nil
}

// Answer forwards the buzz winner's answer and reports the resolved outcome.
func (s *Session) Answer(playerID, answer string) (domain.Outcome, error) {
	s.mu.RLock()
	runner := s.runner
	onRoster := s.record.HasPlayer(playerID)
	s.mu.RUnlock()
	if !onRoster {
		return domain.OutcomePending, domain.ErrPlayerNotInMatch
	}
	if runner == nil {
		return domain.OutcomePending, domain.ErrNoAnswerWindow
	}
	return runner.Answer(playerID, answer)
}

// Subscribe returns a channel of match snapshots, seeded with the current
// state. The caller must invoke the cancel function to avoid leaks. Any client
// may observe; only the coach mutates.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount reports how many clients currently observe the match.
func (s *Session) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// drive runs the shared question list to completion and then publishes the
// final summary. A failed commit is logged but never hides the summary.
func (s *Session) drive(ctx context.Context, runner *game.Runner) {
	summary, _, err := runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		log.Printf("match %s: commit failed: %v", s.record.ID, err)
	}

	s.mu.Lock()
	s.record.Status = domain.MatchCompleted
	s.summary = &summary
	s.question = nil
	done := s.onDone
	s.mu.Unlock()
	s.broadcast()
	if done != nil {
		done()
	}
}

func (s *Session) onQuestionChange(snap game.Snapshot) {
	s.mu.Lock()
	// A callback racing drive's completion must not resurrect the question.
	if s.record.Status == domain.MatchCompleted {
		s.mu.Unlock()
		return
	}
	s.question = &snap
	s.mu.Unlock()
	s.broadcast()
}

func (s *Session) broadcast() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow client never blocks the match.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	s.mu.Unlock()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		MatchID:   s.record.ID,
		Status:    s.record.Status,
		PlayerIDs: append([]string(nil), s.record.PlayerIDs...),
		Question:  s.question,
		Summary:   s.summary,
	}
}
