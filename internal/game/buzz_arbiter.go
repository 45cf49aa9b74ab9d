package game

import (
	"sync"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// BuzzVerdict is the non-error signal returned for every buzz attempt.
type BuzzVerdict string

const (
	// VerdictAccepted means the attempt won the buzz.
	VerdictAccepted BuzzVerdict = "accepted"
	// VerdictIgnored means nothing had been revealed yet; the attempt does not
	// consume the single-attempt slot.
	VerdictIgnored BuzzVerdict = "ignored"
	// VerdictAlreadyBuzzed means another attempt won first.
	VerdictAlreadyBuzzed BuzzVerdict = "alreadyBuzzed"
	// VerdictClosed means the question is already resolved.
	VerdictClosed BuzzVerdict = "closed"
)

// BuzzerState is the replicated view of the arbiter.
type BuzzerState string

const (
	BuzzerIdle   BuzzerState = "idle"
	BuzzerBuzzed BuzzerState = "buzzed"
	BuzzerLocked BuzzerState = "locked"
)

// BuzzArbiter decides which attempt, if any, wins the right to answer the
// current question. It is authoritative for every participant of a match:
// attempts are ranked purely by arrival order at this process, and exactly one
// attempt ever transitions the state to buzzed.
type BuzzArbiter struct {
	mu     sync.Mutex
	armed  bool
	state  BuzzerState
	winner domain.BuzzAttempt
}

func NewBuzzArbiter() *BuzzArbiter {
	return &BuzzArbiter{state: BuzzerIdle}
}

// Arm opens the arbiter for attempts. Called once the first word is revealed;
// attempts before that are ignored since there is nothing to answer yet.
func (a *BuzzArbiter) Arm() {
	a.mu.Lock()
	a.armed = true
	a.mu.Unlock()
}

// Submit applies the first-to-buzz rule. Never an error: races with other
// attempts or with question resolution come back as verdict values.
func (a *BuzzArbiter) Submit(attempt domain.BuzzAttempt) BuzzVerdict {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.state == BuzzerLocked:
		return VerdictClosed
	case a.state == BuzzerBuzzed:
		return VerdictAlreadyBuzzed
	case !a.armed:
		return VerdictIgnored
	default:
		a.state = BuzzerBuzzed
		a.winner = attempt
		return VerdictAccepted
	}
}

// Close locks the arbiter once the question resolves; every later attempt
// observes VerdictClosed.
func (a *BuzzArbiter) Close() {
	a.mu.Lock()
	a.state = BuzzerLocked
	a.mu.Unlock()
}

// Winner returns the accepted attempt, if there is one.
func (a *BuzzArbiter) Winner() (domain.BuzzAttempt, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.winner.PlayerID == "" {
		return domain.BuzzAttempt{}, false
	}
	return a.winner, true
}

// State reports the replicated buzzer state and the winning player id.
func (a *BuzzArbiter) State() (BuzzerState, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.winner.PlayerID
}
