package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RevealClock paces word-by-word disclosure of a question. It ticks once per
// interval, reporting the running count through onReveal, and stops by itself
// once every word is out. Cancel freezes the internal count: ticks queued at
// cancellation are dropped in advance and never counted. A callback dispatch
// already past advance can still land after Cancel, so QuestionSession gates
// onReveal's effects on its own phase.
//
// A RevealClock is single-use; QuestionSession creates exactly one per question.
type RevealClock struct {
	interval time.Duration
	total    int
	clock    clockwork.Clock
	onReveal func(revealed int, done bool)

	mu        sync.Mutex
	revealed  int
	cancelled bool
	ticker    clockwork.Ticker
	stop      chan struct{}
}

func NewRevealClock(clock clockwork.Clock, interval time.Duration, totalWords int, onReveal func(revealed int, done bool)) *RevealClock {
	return &RevealClock{
		interval: interval,
		total:    totalWords,
		clock:    clock,
		onReveal: onReveal,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking. A zero-word text reports done immediately with no ticks.
func (r *RevealClock) Start() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	if r.total == 0 {
		r.cancelled = true
		r.mu.Unlock()
		r.onReveal(0, true)
		return
	}
	r.ticker = r.clock.NewTicker(r.interval)
	r.mu.Unlock()

	go func() {
		for {
			select {
			case <-r.ticker.Chan():
				n, done, ok := r.advance()
				if !ok {
					return
				}
				r.onReveal(n, done)
				if done {
					return
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// advance consumes one tick. It reports ok=false when the clock was cancelled
// before the tick could be applied.
func (r *RevealClock) advance() (revealed int, done, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return 0, false, false
	}
	r.revealed++
	done = r.revealed == r.total
	if done {
		r.cancelled = true
		r.ticker.Stop()
	}
	return r.revealed, done, true
}

// Cancel stops the clock and freezes the count.
func (r *RevealClock) Cancel() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.stop)
	r.mu.Unlock()
}

// Revealed returns the frozen or running word count.
func (r *RevealClock) Revealed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revealed
}
