package alarm

import (
	"context"
	"sync"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
	"github.com/randalmurphal/stateflow/pkg/stateflow/clock"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// subState is what the alarm flow is suspended on.
type subState uint8

const (
	subIdle subState = iota
	subWaiting
	subSleeping
)

// Option configures an Alarm.
type Option func(*options)

type options struct {
	name     string
	flowOpts []stateflow.FlowOption
}

// WithName sets the flow name used in logs and metrics.
// Default: "alarm" followed by the clock ID.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithFlowOptions passes options to the underlying flow.
func WithFlowOptions(opts ...stateflow.FlowOption) Option {
	return func(o *options) {
		o.flowOpts = append(o.flowOpts, opts...)
	}
}

// Alarm calls a function once when a virtual clock reaches a deadline.
//
// Set, SetPeriod, Clear, Expires and Close are safe from any goroutine.
// The callback runs on the executor goroutine.
type Alarm struct {
	*stateflow.Flow
	clock    *clock.Clock
	callback func()
	timer    *stateflow.Timer
	cancel   func()

	// Guarded bundle shared with Set/Clear callers and clock updates.
	mu      sync.Mutex
	expires int64
	pending bool // a Set the flow has not picked up yet
	running bool // the flow is tracking expires
	sub     subState
	closed  bool
}

// New creates an alarm on clk that runs callback on exec. The alarm starts
// disarmed.
func New(exec *stateflow.Executor, clk *clock.Clock, callback func(), opts ...Option) *Alarm {
	a := newAlarm(exec, clk, callback, opts)
	a.attach(a.wakeup)
	return a
}

// newAlarm builds an alarm that is neither subscribed to its clock nor
// started; attach does both.
func newAlarm(exec *stateflow.Executor, clk *clock.Clock, callback func(), opts []Option) *Alarm {
	o := options{name: "alarm " + clk.ID().String()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &Alarm{
		Flow:     stateflow.NewFlow(exec, o.name, o.flowOpts...),
		clock:    clk,
		callback: callback,
	}
	a.timer = a.NewTimer()
	return a
}

// attach subscribes onUpdate to clock changes and starts the flow. onUpdate
// runs on the executor goroutine. Call it once the owner of the alarm is
// fully built.
func (a *Alarm) attach(onUpdate func()) {
	exec := a.Executor()
	a.cancel = a.clock.Subscribe(func() {
		exec.Post(onUpdate)
	})
	a.Start(a.setup)
}

// Clock returns the clock the alarm runs against.
func (a *Alarm) Clock() *clock.Clock {
	return a.clock
}

// Set arms the alarm to fire when the clock reaches t. A later Set
// replaces an earlier one that has not fired.
func (a *Alarm) Set(t int64) {
	a.mu.Lock()
	a.running = false
	a.pending = true
	a.expires = t
	a.mu.Unlock()

	observability.LogAlarmArmed(a.Logger(), a.Name(), t)
	a.Executor().Post(a.wakeup)
}

// SetPeriod arms the alarm period clock seconds from now in the clock's
// direction of travel. It does nothing while the clock is stopped.
func (a *Alarm) SetPeriod(period int64) {
	now, rate := a.clock.TimeAndRate()
	switch {
	case rate > 0:
		a.Set(now + period)
	case rate < 0:
		a.Set(now - period)
	}
}

// Clear disarms the alarm. The flow is not woken; a pending sleep runs
// out and finds nothing to fire. A callback already running completes.
func (a *Alarm) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	a.pending = false
}

// Expires returns the deadline and whether the alarm is armed.
func (a *Alarm) Expires() (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expires, a.pending || a.running
}

// Close unsubscribes from the clock and ends the flow. The alarm cannot be
// used afterwards.
func (a *Alarm) Close() {
	a.cancel()
	a.mu.Lock()
	a.closed = true
	a.pending = false
	a.running = false
	a.mu.Unlock()
	a.Executor().Post(a.wakeup)
}

// setup decides between waiting, sleeping and firing.
func (a *Alarm) setup() stateflow.Action {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		a.sub = subIdle
		return stateflow.Exit()
	}
	if !a.pending && !a.running {
		a.sub = subWaiting
		return stateflow.WaitAndCall(a.setup)
	}
	a.pending = false
	a.running = true

	now, rate := a.clock.TimeAndRate()
	if isExpired(now, rate, a.expires) {
		a.sub = subIdle
		return stateflow.CallImmediately(a.expired)
	}
	if rate == 0 {
		// No deadline can be computed; the next clock change wakes us.
		a.sub = subWaiting
		return stateflow.WaitAndCall(a.setup)
	}
	a.sub = subSleeping
	return stateflow.SleepAndCall(a.timer, a.clock.RateSecToRealPeriod(now-a.expires), a.timeout)
}

// timeout resumes after the sleep. A triggered timer means a clock change
// or a new Set, so everything is re-evaluated.
func (a *Alarm) timeout() stateflow.Action {
	if a.timer.IsTriggered() {
		return stateflow.CallImmediately(a.setup)
	}

	a.mu.Lock()
	a.sub = subIdle
	expires := a.expires
	a.mu.Unlock()

	now, rate := a.clock.TimeAndRate()
	if !isExpired(now, rate, expires) {
		return stateflow.CallImmediately(a.setup)
	}
	return stateflow.CallImmediately(a.expired)
}

// expired fires the callback if the alarm is still armed for this
// deadline, then goes back to setup.
func (a *Alarm) expired() stateflow.Action {
	a.mu.Lock()
	fire := a.running
	deadline := a.expires
	a.running = false
	a.mu.Unlock()

	if fire && a.callback != nil {
		observability.LogAlarmFired(a.Logger(), a.Name(), deadline, a.clock.Time())
		a.Metrics().RecordAlarmFired(context.Background(), a.Name())
		a.callback()
	}
	return stateflow.CallImmediately(a.setup)
}

// wakeup makes the flow re-evaluate. Runs on the executor goroutine.
func (a *Alarm) wakeup() {
	a.mu.Lock()
	sub := a.sub
	a.sub = subIdle
	a.mu.Unlock()

	switch sub {
	case subWaiting:
		a.Notify()
	case subSleeping:
		a.timer.Trigger()
	}
}

// isExpired reports whether a clock at now moving at rate has reached
// deadline.
func isExpired(now int64, rate clock.Rate, deadline int64) bool {
	switch {
	case rate > 0:
		return now >= deadline
	case rate < 0:
		return now <= deadline
	default:
		return now == deadline
	}
}
