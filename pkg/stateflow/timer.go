package stateflow

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a one-shot deadline used by SleepAndCall. Each sleep resolves
// exactly once: either the period elapses on the executor clock, or
// Trigger pre-empts it. Both resume the flow on the executor goroutine.
type Timer struct {
	flow *Flow

	mu        sync.Mutex
	pending   clockwork.Timer
	gen       uint64
	armed     bool
	triggered bool
}

// Trigger ends the current sleep early. It is safe from any goroutine and
// is a no-op when the timer is not armed.
func (t *Timer) Trigger() {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.triggered = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.mu.Unlock()

	t.flow.exec.Post(t.resume)
}

// IsTriggered reports whether the last sleep ended through Trigger rather
// than by the period elapsing.
func (t *Timer) IsTriggered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.triggered
}

// IsArmed reports whether a sleep is in progress.
func (t *Timer) IsArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// arm starts a new sleep. Called on the executor goroutine by the flow.
func (t *Timer) arm(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	gen := t.gen
	t.armed = true
	t.triggered = false
	t.pending = t.flow.exec.clock.AfterFunc(period, func() { t.expire(gen) })
}

// expire runs on the clock's goroutine when the period has elapsed.
func (t *Timer) expire(gen uint64) {
	t.mu.Lock()
	if !t.armed || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.pending = nil
	t.mu.Unlock()

	t.flow.exec.Post(t.resume)
}

func (t *Timer) resume() {
	t.flow.resumeSleeping(t)
}
