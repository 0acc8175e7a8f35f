package app

import (
	"sync"
	"time"
)

// Timer is a countdown clock in whole seconds. It emits one decrement per
// interval (wall-clock second in production) and fires onExpire exactly once
// when the count reaches zero. Starting while running cancels the previous
// run; Cancel is idempotent.
type Timer struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewTimer() *Timer {
	return NewTimerWithInterval(time.Second)
}

// NewTimerWithInterval allows a shorter tick interval for deterministic tests.
func NewTimerWithInterval(interval time.Duration) *Timer {
	return &Timer{interval: interval}
}

// Start begins a countdown of durationSeconds. onTick receives the remaining
// seconds after each decrement; onExpire fires once when it reaches zero.
// Callbacks run on the timer goroutine.
func (t *Timer) Start(durationSeconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	t.cancelLocked()
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(durationSeconds, stop, onTick, onExpire)
}

// Cancel stops the current countdown, suppressing any further ticks and the
// expiry signal. Safe to call when not running.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Timer) cancelLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) run(remaining int, stop chan struct{}, onTick func(int), onExpire func()) {
	if remaining <= 0 {
		onExpire()
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining--
			if onTick != nil {
				onTick(remaining)
			}
			if remaining <= 0 {
				// Re-check cancellation so a Cancel racing the final tick
				// still suppresses expiry.
				select {
				case <-stop:
				default:
					onExpire()
				}
				return
			}
		}
	}
}
