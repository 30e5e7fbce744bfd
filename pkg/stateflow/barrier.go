package stateflow

import "sync/atomic"

// Notifiable is anything that can be told one unit of work is done.
type Notifiable interface {
	Done()
}

// Barrier is a fan-out/join counter. It starts with n pending releases;
// Ticket adds more. When the count reaches zero the final action runs
// exactly once, synchronously, inside the call that released the last
// ticket.
//
// The counter is atomic, so tickets may be released from any goroutine.
//
// Example:
//
//	b := stateflow.NewBarrier(func() { flow.Notify() }, 1)
//	for _, child := range children {
//	    child.Start(b.Ticket())
//	}
//	b.Done() // release the creator's ticket
type Barrier struct {
	pending atomic.Int64
	fired   atomic.Bool
	final   func()
}

var _ Notifiable = (*Barrier)(nil)

// NewBarrier creates a barrier with n pending releases. With n == 0 the
// final action runs before NewBarrier returns.
func NewBarrier(final func(), n int) *Barrier {
	if n < 0 {
		violation("barrier", "", "negative ticket count")
	}
	b := &Barrier{final: final}
	b.pending.Store(int64(n))
	if n == 0 {
		b.fire()
	}
	return b
}

// Done releases one of the barrier's initial tickets.
func (b *Barrier) Done() {
	b.release()
}

// Ticket adds one pending release and returns its handle.
// Adding a ticket after the barrier fired is a programming defect.
func (b *Barrier) Ticket() *Ticket {
	if b.fired.Load() {
		violation("barrier", "", "ticket taken after completion")
	}
	b.pending.Add(1)
	return &Ticket{barrier: b}
}

// Pending returns the number of outstanding releases.
func (b *Barrier) Pending() int {
	return int(b.pending.Load())
}

// Fired reports whether the final action has run.
func (b *Barrier) Fired() bool {
	return b.fired.Load()
}

func (b *Barrier) release() {
	switch n := b.pending.Add(-1); {
	case n == 0:
		b.fire()
	case n < 0:
		violation("barrier", "", "released more times than acquired")
	}
}

func (b *Barrier) fire() {
	if !b.fired.CompareAndSwap(false, true) {
		violation("barrier", "", "completed twice")
	}
	if b.final != nil {
		b.final()
	}
}

// Ticket is one pending release of a Barrier. Done must be called exactly
// once.
type Ticket struct {
	barrier *Barrier
	done    atomic.Bool
}

var _ Notifiable = (*Ticket)(nil)

// Done releases the ticket. A second call is a programming defect.
func (t *Ticket) Done() {
	if !t.done.CompareAndSwap(false, true) {
		violation("ticket", "", "released twice")
	}
	t.barrier.release()
}
