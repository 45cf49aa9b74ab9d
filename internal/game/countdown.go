package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// countdown is a one-shot cancelable timer. fire runs at most once; after
// Cancel the pending callback is stopped and its channel drained so the
// waiting goroutine always exits. Callers that need a hard no-fire-after-cancel
// guarantee additionally gate fire's effects on their own state, since a fire
// already in flight can race the cancellation.
type countdown struct {
	timer clockwork.Timer
	stop  chan struct{}

	mu      sync.Mutex
	stopped bool
}

func startCountdown(clock clockwork.Clock, d time.Duration, fire func()) *countdown {
	c := &countdown{
		timer: clock.NewTimer(d),
		stop:  make(chan struct{}),
	}
	go func() {
		select {
		case <-c.timer.Chan():
			fire()
		case <-c.stop:
		}
	}()
	return c
}

func (c *countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if !c.timer.Stop() {
		select {
		case <-c.timer.Chan():
		default:
		}
	}
	close(c.stop)
}
