package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
)

// envelope is one queued dispatch.
type envelope struct {
	ctx    context.Context
	cat    Category
	report *Report
	done   func()
}

// Dispatcher is a state flow that feeds the registry one report at a time.
// It dispatches a report, waits until every handler has released its
// ticket, and only then takes the next report from its inbox.
//
// Example:
//
//	d := event.NewDispatcher(exec, registry)
//	d.Enqueue(ctx, event.CategoryReport, &event.Report{Event: id, Source: src}, nil)
type Dispatcher struct {
	*stateflow.Flow
	registry *Registry

	mu    sync.Mutex
	inbox []envelope

	current   envelope
	completed atomic.Bool
	handled   atomic.Uint64
}

// NewDispatcher creates and starts a dispatcher flow on exec.
func NewDispatcher(exec *stateflow.Executor, registry *Registry, opts ...stateflow.FlowOption) *Dispatcher {
	d := &Dispatcher{
		Flow:     stateflow.NewFlow(exec, "event-dispatcher", opts...),
		registry: registry,
	}
	d.Start(d.next)
	return d
}

// Enqueue queues report for dispatch under cat. done, if not nil, runs once
// every matching handler has completed. Safe from any goroutine.
func (d *Dispatcher) Enqueue(ctx context.Context, cat Category, report *Report, done func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.Lock()
	d.inbox = append(d.inbox, envelope{ctx: ctx, cat: cat, report: report, done: done})
	d.mu.Unlock()
	d.Notify()
}

// Pending returns the number of queued reports not yet dispatched.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inbox)
}

// Handled returns the number of dispatches that have completed.
func (d *Dispatcher) Handled() uint64 {
	return d.handled.Load()
}

func (d *Dispatcher) next() stateflow.Action {
	d.mu.Lock()
	if len(d.inbox) == 0 {
		d.mu.Unlock()
		return stateflow.WaitAndCall(d.next)
	}
	d.current = d.inbox[0]
	d.inbox[0] = envelope{}
	d.inbox = d.inbox[1:]
	d.mu.Unlock()
	return stateflow.CallImmediately(d.dispatch)
}

func (d *Dispatcher) dispatch() stateflow.Action {
	d.completed.Store(false)
	env := d.current
	d.registry.Dispatch(env.ctx, env.cat, env.report, func() {
		d.completed.Store(true)
		d.Notify()
	})
	return stateflow.CallImmediately(d.complete)
}

// complete waits for the barrier of the current dispatch. Wakes from
// Enqueue can land here too, so it checks the flag rather than trusting
// the wake.
func (d *Dispatcher) complete() stateflow.Action {
	if !d.completed.Load() {
		return stateflow.WaitAndCall(d.complete)
	}
	if d.current.done != nil {
		d.current.done()
	}
	d.current = envelope{}
	d.handled.Add(1)
	return stateflow.CallImmediately(d.next)
}
