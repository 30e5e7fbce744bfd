/*
Package stateflow provides cooperative state flows on a single-goroutine
executor.

# Overview

A state flow is a long-lived asynchronous activity written as a chain of
states. Each state runs to completion on the executor goroutine and returns
a directive that says what happens next:

  - CallImmediately(next): run next now, without yielding
  - WaitAndCall(next): suspend until Notify, then run next
  - SleepAndCall(timer, d, next): suspend until d elapses or the timer is
    triggered, then run next
  - Exit(): finish the flow

Because every state of every flow runs on the same goroutine, flow fields
need no locking. Other goroutines interact with a flow only through
Notify, Timer.Trigger, or by posting a task to the Executor.

# Basic Usage

	type Blinker struct {
	    *stateflow.Flow
	    timer *stateflow.Timer
	    on    bool
	}

	func NewBlinker(exec *stateflow.Executor) *Blinker {
	    b := &Blinker{Flow: stateflow.NewFlow(exec, "blinker")}
	    b.timer = b.NewTimer()
	    b.Start(b.toggle)
	    return b
	}

	func (b *Blinker) toggle() stateflow.Action {
	    b.on = !b.on
	    return stateflow.SleepAndCall(b.timer, 500*time.Millisecond, b.toggle)
	}

	exec := stateflow.NewExecutor()
	exec.Start(ctx)
	defer exec.Stop()
	NewBlinker(exec)

# Early Wake

A sleeping flow can be woken before its deadline with Timer.Trigger. The
resume state tells a wake from a timeout with Timer.IsTriggered:

	func (f *Fetcher) resume() stateflow.Action {
	    if f.timer.IsTriggered() {
	        return stateflow.CallImmediately(f.handleWake)
	    }
	    return stateflow.CallImmediately(f.handleTimeout)
	}

# Completion Barriers

Barrier joins the completion of several sub-operations into one action:

	b := stateflow.NewBarrier(flow.Notify, 1)
	for _, child := range children {
	    child.Begin(b.Ticket())
	}
	b.Done()
	return stateflow.WaitAndCall(flow.allDone)

# Testing

Inject a fake clock with WithClock and advance it; Executor.Sync waits for
the tasks the advance produced:

	fake := clockwork.NewFakeClock()
	exec := stateflow.NewExecutor(stateflow.WithClock(fake))

# Errors

Misuse of the runtime (a state returning the zero Action, a ticket released
twice, a barrier released past zero) is a programming defect. The runtime
panics with *ContractError; the executor logs the panic and re-raises it.
*/
package stateflow
