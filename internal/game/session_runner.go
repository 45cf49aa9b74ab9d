package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// Committer durably records a finished session. A commit failure is surfaced
// to the caller but never discards the in-memory summary.
type Committer interface {
	CommitSession(ctx context.Context, summary domain.SessionSummary) (string, error)
}

// resultPause is the on-screen result beat between an answered question and
// the next reveal.
const resultPause = 2 * time.Second

// Runner drives QuestionSession instances strictly sequentially over a fixed
// question list, accumulating the session summary. It commits the summary
// exactly once, on the final resolution.
type Runner struct {
	clock     clockwork.Clock
	settings  Settings
	questions []domain.Question
	playerID  string
	teamID    string
	gameType  string
	committer Committer
	onChange  func(Snapshot)
	rng       *rand.Rand

	mu      sync.Mutex
	current *QuestionSession
	summary domain.SessionSummary
}

// NewRunner validates configuration and the question list before any timer
// may start. An empty list is a fatal precondition.
func NewRunner(clock clockwork.Clock, settings Settings, questions []domain.Question, playerID, teamID, gameType string, committer Committer, onChange func(Snapshot)) (*Runner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}
	return &Runner{
		clock:     clock,
		settings:  settings,
		questions: questions,
		playerID:  playerID,
		teamID:    teamID,
		gameType:  gameType,
		committer: committer,
		onChange:  onChange,
		rng:       rand.New(rand.NewSource(clock.Now().UnixNano())),
		summary: domain.SessionSummary{
			PlayerID:         playerID,
			TeamID:           teamID,
			GameType:         gameType,
			BuzzTimes:        []float64{},
			CorrectBySubject: make(map[string]int),
			TotalBySubject:   make(map[string]int),
			QuestionIDs:      questionIDs,
		},
	}, nil
}

// Run blocks until every question resolves or ctx is cancelled, then returns
// the summary and the committed record id. On cancellation the partial summary
// is returned without a commit. A commit failure still returns the summary so
// the caller can display it.
func (r *Runner) Run(ctx context.Context) (domain.SessionSummary, string, error) {
	r.mu.Lock()
	r.summary.StartedAt = r.clock.Now()
	r.mu.Unlock()

	for i, question := range r.questions {
		session := NewQuestionSession(r.clock, r.settings, question, i, len(r.questions), r.rng, r.decorate)
		r.mu.Lock()
		r.current = session
		r.mu.Unlock()
		session.Start()

		select {
		case <-session.Done():
		case <-ctx.Done():
			session.Cancel()
			summary := r.finalize()
			return summary, "", ctx.Err()
		}

		result := session.Result()
		r.accumulate(result)

		// Answered questions hold the result on screen before moving on;
		// an unbuzzed timeout advances immediately.
		if result.Outcome != domain.OutcomeTimedOut && i < len(r.questions)-1 {
			pause := r.clock.NewTimer(resultPause)
			select {
			case <-pause.Chan():
			case <-ctx.Done():
				pause.Stop()
				summary := r.finalize()
				return summary, "", ctx.Err()
			}
		}
	}

	summary := r.finalize()
	if r.committer == nil {
		return summary, "", nil
	}
	recordID, err := r.committer.CommitSession(ctx, summary)
	if err != nil {
		return summary, "", err
	}
	return summary, recordID, nil
}

// Buzz forwards an attempt to the question currently on the floor.
func (r *Runner) Buzz(playerID string) BuzzVerdict {
	r.mu.Lock()
	session := r.current
	r.mu.Unlock()
	if session == nil {
		return VerdictClosed
	}
	return session.Buzz(playerID)
}

// Answer forwards an answer to the question currently on the floor.
func (r *Runner) Answer(playerID, answer string) (domain.Outcome, error) {
	r.mu.Lock()
	session := r.current
	r.mu.Unlock()
	if session == nil {
		return domain.OutcomePending, domain.ErrNoAnswerWindow
	}
	return session.Answer(playerID, answer)
}

// Snapshot returns the current question's replicated view with the running
// score folded in.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	session := r.current
	score := r.summary.Score
	r.mu.Unlock()
	if session == nil {
		return Snapshot{QuestionCount: len(r.questions)}
	}
	snap := session.Snapshot()
	snap.Score = score
	return snap
}

func (r *Runner) accumulate(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if result.Outcome == domain.OutcomePending {
		return // cancelled, never resolved
	}
	r.summary.TotalAttempted++
	r.summary.TotalBySubject[result.Subject]++
	if result.Buzzed {
		r.summary.BuzzTimes = append(r.summary.BuzzTimes, round2(float64(result.BuzzElapsedMs)/1000))
	}
	switch result.Outcome {
	case domain.OutcomeCorrect:
		r.summary.Score++
		r.summary.CorrectBySubject[result.Subject]++
	case domain.OutcomeHesitationExpired:
		r.summary.HesitationCount++
	}
}

func (r *Runner) finalize() domain.SessionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
	r.summary.CompletedAt = r.clock.Now()
	if len(r.summary.BuzzTimes) > 0 {
		var sum float64
		for _, t := range r.summary.BuzzTimes {
			sum += t
		}
		r.summary.AvgBuzzTime = round2(sum / float64(len(r.summary.BuzzTimes)))
	}
	return r.summary
}

// decorate folds runner-level fields into a question snapshot before pushing
// it to the subscriber.
func (r *Runner) decorate(snap Snapshot) {
	if r.onChange == nil {
		return
	}
	r.mu.Lock()
	snap.Score = r.summary.Score
	r.mu.Unlock()
	r.onChange(snap)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
