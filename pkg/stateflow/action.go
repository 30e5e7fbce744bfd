package stateflow

import "time"

// State is one step of a flow. It runs to completion on the executor
// goroutine and returns the directive that says what happens next.
//
// Concrete flows use method values:
//
//	func (a *Blinker) on() stateflow.Action {
//	    a.led.Set(true)
//	    return stateflow.SleepAndCall(a.timer, time.Second, a.off)
//	}
type State func() Action

type actionKind uint8

const (
	actionNone actionKind = iota
	actionCall
	actionWait
	actionSleep
	actionExit
)

// String returns the directive name for logs.
func (k actionKind) String() string {
	switch k {
	case actionCall:
		return "call"
	case actionWait:
		return "wait"
	case actionSleep:
		return "sleep"
	case actionExit:
		return "exit"
	default:
		return "none"
	}
}

// Action is the scheduling directive returned by a State.
// The zero Action is not a valid directive.
type Action struct {
	kind   actionKind
	next   State
	timer  *Timer
	period time.Duration
}

// CallImmediately runs next on the same turn without yielding.
func CallImmediately(next State) Action {
	return Action{kind: actionCall, next: next}
}

// WaitAndCall suspends the flow until Notify, then runs next.
func WaitAndCall(next State) Action {
	return Action{kind: actionWait, next: next}
}

// SleepAndCall suspends the flow until period elapses on the executor
// clock or timer.Trigger() is called, then runs next. next tells the two
// apart with timer.IsTriggered().
func SleepAndCall(timer *Timer, period time.Duration, next State) Action {
	return Action{kind: actionSleep, next: next, timer: timer, period: period}
}

// Exit terminates the flow. It will not run again.
func Exit() Action {
	return Action{kind: actionExit}
}
