package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// Phase is the lifecycle of one question.
type Phase int

const (
	PhaseRevealing Phase = iota
	PhaseBuzzedAwaitingAnswer
	PhaseResolved
)

// Result is what survives a resolved question; all other session state is
// discarded with the session.
type Result struct {
	QuestionID     string
	Subject        string
	Outcome        domain.Outcome
	SelectedAnswer string
	BuzzedBy       string
	BuzzElapsedMs  int64
	Buzzed         bool
}

// Snapshot is the replicated view of a running question, pushed to every
// subscribed client on each state change. Clients count timers down locally
// from the remaining-seconds fields; the server stays authoritative.
type Snapshot struct {
	QuestionIndex    int            `json:"questionIndex"`
	QuestionCount    int            `json:"questionCount"`
	RevealedText     string         `json:"revealedText"`
	RevealedWords    int            `json:"revealedWords"`
	TotalWords       int            `json:"totalWords"`
	FullyRevealed    bool           `json:"fullyRevealed"`
	Choices          []string       `json:"choices,omitempty"`
	BuzzerState      BuzzerState    `json:"buzzerState"`
	BuzzedBy         string         `json:"buzzedBy,omitempty"`
	Outcome          domain.Outcome `json:"outcome"`
	Score            int            `json:"score"`
	TimerRemaining   int            `json:"timerRemainingSec"`
	HesitationRemain int            `json:"hesitationRemainingSec"`
}

// QuestionSession runs one question: reveal, buzz arbitration, hesitation
// window, resolution. The three timers share this session's state; every
// mutation goes through mu, so the buzz transition is atomic with respect to
// reveal ticks and the question timer. Exactly one of buzz-accepted or
// time-expired resolves the question, never both.
type QuestionSession struct {
	clock    clockwork.Clock
	settings Settings
	question domain.Question
	index    int
	count    int
	words    []string
	choices  []string
	onChange func(Snapshot)

	reveal        *RevealClock
	arbiter       *BuzzArbiter
	questionTimer *countdown
	hesitation    *countdown

	mu                 sync.Mutex
	phase              Phase
	startedAt          time.Time
	revealed           int
	fullyRevealed      bool
	timerExpired       bool
	questionDeadline   time.Time
	hesitationDeadline time.Time
	result             Result
	done               chan struct{}
}

// NewQuestionSession prepares a question without starting any timer. The four
// answer choices are shuffled once so every participant sees the same order.
func NewQuestionSession(clock clockwork.Clock, settings Settings, question domain.Question, index, count int, rng *rand.Rand, onChange func(Snapshot)) *QuestionSession {
	choices := append([]string{question.CorrectAnswer}, question.Distractors...)
	rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	s := &QuestionSession{
		clock:    clock,
		settings: settings,
		question: question,
		index:    index,
		count:    count,
		words:    strings.Fields(question.Text),
		choices:  choices,
		onChange: onChange,
		arbiter:  NewBuzzArbiter(),
		done:     make(chan struct{}),
		result: Result{
			QuestionID: question.ID,
			Subject:    question.SubjectArea,
			Outcome:    domain.OutcomePending,
		},
	}
	return s
}

// Start begins the reveal and the main question timer.
func (s *QuestionSession) Start() {
	s.mu.Lock()
	s.startedAt = s.clock.Now()
	s.questionDeadline = s.startedAt.Add(s.settings.QuestionTime)
	s.questionTimer = startCountdown(s.clock, s.settings.QuestionTime, s.onQuestionTimeout)
	s.reveal = NewRevealClock(s.clock, s.settings.WordInterval(), len(s.words), s.onRevealTick)
	s.mu.Unlock()
	s.reveal.Start()
	s.notify()
}

// Buzz submits an attempt for playerID. The first accepted attempt freezes the
// reveal, cancels the question timer, and opens the hesitation window.
func (s *QuestionSession) Buzz(playerID string) BuzzVerdict {
	s.mu.Lock()
	if s.phase == PhaseResolved {
		s.mu.Unlock()
		return VerdictClosed
	}
	now := s.clock.Now()
	attempt := domain.BuzzAttempt{
		PlayerID:        playerID,
		QuestionID:      s.question.ID,
		ClientElapsedMs: now.Sub(s.startedAt).Milliseconds(),
		ServerReceived:  now,
	}
	verdict := s.arbiter.Submit(attempt)
	if verdict != VerdictAccepted {
		s.mu.Unlock()
		return verdict
	}

	s.phase = PhaseBuzzedAwaitingAnswer
	s.result.Buzzed = true
	s.result.BuzzedBy = playerID
	s.result.BuzzElapsedMs = attempt.ClientElapsedMs
	s.reveal.Cancel()
	s.questionTimer.Cancel()
	s.hesitationDeadline = now.Add(s.settings.Hesitation)
	s.hesitation = startCountdown(s.clock, s.settings.Hesitation, s.onHesitationExpired)
	s.mu.Unlock()
	s.notify()
	return VerdictAccepted
}

// Answer commits the buzz winner's answer, preempting the hesitation timer.
// The resolved outcome is returned so callers can acknowledge the answer
// without waiting for the next snapshot.
func (s *QuestionSession) Answer(playerID, answer string) (domain.Outcome, error) {
	s.mu.Lock()
	if s.phase != PhaseBuzzedAwaitingAnswer {
		s.mu.Unlock()
		return domain.OutcomePending, domain.ErrNoAnswerWindow
	}
	if winner, ok := s.arbiter.Winner(); !ok || winner.PlayerID != playerID {
		s.mu.Unlock()
		return domain.OutcomePending, domain.ErrNotBuzzWinner
	}
	outcome := domain.OutcomeIncorrect
	if answer == s.question.CorrectAnswer {
		outcome = domain.OutcomeCorrect
	}
	s.result.SelectedAnswer = answer
	s.resolveLocked(outcome)
	s.mu.Unlock()
	s.notify()
	return outcome, nil
}

// Cancel abandons the question without an outcome (match cancelled mid-run).
func (s *QuestionSession) Cancel() {
	s.mu.Lock()
	if s.phase == PhaseResolved {
		s.mu.Unlock()
		return
	}
	s.resolveLocked(domain.OutcomePending)
	s.mu.Unlock()
	s.notify()
}

// Done closes when the question is resolved.
func (s *QuestionSession) Done() <-chan struct{} { return s.done }

// Result is valid once Done is closed.
func (s *QuestionSession) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Snapshot returns the replicated view of the question.
func (s *QuestionSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *QuestionSession) snapshotLocked() Snapshot {
	state, buzzedBy := s.arbiter.State()
	snap := Snapshot{
		QuestionIndex: s.index,
		QuestionCount: s.count,
		RevealedText:  strings.Join(s.words[:s.revealed], " "),
		RevealedWords: s.revealed,
		TotalWords:    len(s.words),
		FullyRevealed: s.fullyRevealed,
		BuzzerState:   state,
		BuzzedBy:      buzzedBy,
		Outcome:       s.result.Outcome,
	}
	// Answer choices unlock on a winning buzz or full reveal.
	if s.result.Buzzed || s.fullyRevealed {
		snap.Choices = s.choices
	}
	now := s.clock.Now()
	switch s.phase {
	case PhaseRevealing:
		snap.TimerRemaining = remainingSeconds(s.questionDeadline, now)
	case PhaseBuzzedAwaitingAnswer:
		snap.HesitationRemain = remainingSeconds(s.hesitationDeadline, now)
	}
	return snap
}

// onRevealTick applies one reveal increment. A session that is no longer
// revealing drops the tick, which is what makes a cancelled clock harmless
// even when a tick was already in flight.
func (s *QuestionSession) onRevealTick(revealed int, doneRevealing bool) {
	s.mu.Lock()
	if s.phase != PhaseRevealing {
		s.mu.Unlock()
		return
	}
	s.revealed = revealed
	if revealed == 1 {
		s.arbiter.Arm()
	}
	if doneRevealing {
		s.fullyRevealed = true
		if s.timerExpired {
			s.resolveLocked(domain.OutcomeTimedOut)
		}
	}
	s.mu.Unlock()
	s.notify()
}

// onQuestionTimeout fires when the main countdown reaches zero. If the text is
// not fully out yet the timeout is deferred until the reveal completes, so the
// question never times out mid-word.
func (s *QuestionSession) onQuestionTimeout() {
	s.mu.Lock()
	if s.phase != PhaseRevealing {
		s.mu.Unlock()
		return
	}
	s.timerExpired = true
	if !s.fullyRevealed {
		s.mu.Unlock()
		return
	}
	s.resolveLocked(domain.OutcomeTimedOut)
	s.mu.Unlock()
	s.notify()
}

func (s *QuestionSession) onHesitationExpired() {
	s.mu.Lock()
	if s.phase != PhaseBuzzedAwaitingAnswer {
		s.mu.Unlock()
		return
	}
	s.resolveLocked(domain.OutcomeHesitationExpired)
	s.mu.Unlock()
	s.notify()
}

// resolveLocked finalizes the question. Callers hold s.mu.
func (s *QuestionSession) resolveLocked(outcome domain.Outcome) {
	s.phase = PhaseResolved
	s.result.Outcome = outcome
	if s.reveal != nil {
		s.reveal.Cancel()
	}
	if s.questionTimer != nil {
		s.questionTimer.Cancel()
	}
	if s.hesitation != nil {
		s.hesitation.Cancel()
	}
	s.arbiter.Close()
	close(s.done)
}

func (s *QuestionSession) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}

func remainingSeconds(deadline, now time.Time) int {
	if deadline.IsZero() {
		return 0
	}
	remaining := int(deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
