package stateflow

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// Blocked describes why a flow is not running.
type Blocked uint8

// Blocked reasons.
const (
	// BlockedNone: the flow is runnable, running, or not started yet.
	BlockedNone Blocked = iota
	// BlockedWaiting: suspended by WaitAndCall until Notify.
	BlockedWaiting
	// BlockedSleeping: suspended by SleepAndCall until its timer resolves.
	BlockedSleeping
	// BlockedExited: the flow returned Exit and is finished.
	BlockedExited
)

// String returns the reason name.
func (b Blocked) String() string {
	switch b {
	case BlockedWaiting:
		return "waiting"
	case BlockedSleeping:
		return "sleeping"
	case BlockedExited:
		return "exited"
	default:
		return "none"
	}
}

// Flow is a cooperative task made of States. Concrete flows embed *Flow
// (or hold one) and pass method values as states.
//
// All flow fields are owned by the executor goroutine: states, resumes
// and Start all run there. Notify and Timer.Trigger are the only entry
// points from other goroutines and they only post work to the executor.
// A flow therefore never runs two states at once, and it resumes only
// through the directive it last returned.
type Flow struct {
	exec    *Executor
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder

	state   State
	blocked Blocked
	sleepOn *Timer
	started bool

	notifyPending atomic.Bool
}

// NewFlow creates a flow bound to exec. The flow does nothing until Start.
func NewFlow(exec *Executor, name string, opts ...FlowOption) *Flow {
	if exec == nil {
		violation("flow", name, "nil executor")
	}
	f := &Flow{
		exec:    exec,
		name:    name,
		logger:  observability.EnrichLogger(exec.logger, exec.id, name),
		metrics: exec.metrics,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the flow name.
func (f *Flow) Name() string {
	return f.name
}

// Executor returns the executor the flow runs on.
func (f *Flow) Executor() *Executor {
	return f.exec
}

// Logger returns the flow logger.
func (f *Flow) Logger() *slog.Logger {
	return f.logger
}

// Metrics returns the flow metrics recorder.
func (f *Flow) Metrics() observability.MetricsRecorder {
	return f.metrics
}

// Blocked reports why the flow is suspended. Only meaningful on the
// executor goroutine (from a state or a posted task).
func (f *Flow) Blocked() Blocked {
	return f.blocked
}

// Start posts the first turn of the flow, beginning at initial.
// Starting a flow twice is a programming defect.
func (f *Flow) Start(initial State) {
	if initial == nil {
		violation("flow", f.name, "nil initial state")
	}
	f.exec.Post(func() {
		if f.started {
			violation("flow", f.name, "started twice")
		}
		f.started = true
		f.state = initial
		f.turn()
	})
}

// Notify wakes the flow if it is suspended in WaitAndCall. It is safe from
// any goroutine. Wakes that arrive while a wake is already queued collapse
// into one; a wake that finds the flow not waiting is dropped.
func (f *Flow) Notify() {
	if !f.notifyPending.CompareAndSwap(false, true) {
		return
	}
	f.exec.Post(f.resumeWaiting)
}

// NewTimer creates a timer bound to this flow for use with SleepAndCall.
func (f *Flow) NewTimer() *Timer {
	return &Timer{flow: f}
}

func (f *Flow) resumeWaiting() {
	f.notifyPending.Store(false)
	if f.blocked != BlockedWaiting {
		return
	}
	f.blocked = BlockedNone
	f.turn()
}

func (f *Flow) resumeSleeping(t *Timer) {
	if f.blocked != BlockedSleeping || f.sleepOn != t {
		return
	}
	f.blocked = BlockedNone
	f.sleepOn = nil
	f.turn()
}

// turn runs states until one suspends or exits the flow.
func (f *Flow) turn() {
	states := 0
	defer func() {
		f.metrics.RecordFlowTurn(context.Background(), f.name, states)
	}()

	for {
		if f.state == nil {
			violation("flow", f.name, "no state to run")
		}
		a := f.state()
		states++

		switch a.kind {
		case actionCall:
			if a.next == nil {
				violation("flow", f.name, "call with nil state")
			}
			f.state = a.next

		case actionWait:
			if a.next == nil {
				violation("flow", f.name, "wait with nil state")
			}
			f.state = a.next
			f.blocked = BlockedWaiting
			observability.LogFlowSuspend(f.logger, f.name, a.kind.String())
			return

		case actionSleep:
			if a.next == nil || a.timer == nil {
				violation("flow", f.name, "sleep without timer or state")
			}
			if a.timer.flow != f {
				violation("flow", f.name, "sleep on a timer owned by another flow")
			}
			f.state = a.next
			f.blocked = BlockedSleeping
			f.sleepOn = a.timer
			observability.LogFlowSuspend(f.logger, f.name, a.kind.String())
			a.timer.arm(a.period)
			return

		case actionExit:
			f.state = nil
			f.blocked = BlockedExited
			observability.LogFlowSuspend(f.logger, f.name, a.kind.String())
			return

		default:
			violation("flow", f.name, "state returned no directive")
		}
	}
}
