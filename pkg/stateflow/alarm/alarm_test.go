package alarm_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
	"github.com/randalmurphal/stateflow/pkg/stateflow/alarm"
	"github.com/randalmurphal/stateflow/pkg/stateflow/clock"
)

const waitFor = 2 * time.Second
const tick = time.Millisecond

// start is 2024-03-01 10:00:00 UTC.
var start = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type env struct {
	exec *stateflow.Executor
	wall clockwork.FakeClock
	clk  *clock.Clock
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEnv runs an executor and a virtual clock on one fake wall clock.
func newEnv(t *testing.T, rate float64) *env {
	t.Helper()
	wall := clockwork.NewFakeClockAt(start)
	exec := stateflow.NewExecutor(
		stateflow.WithClock(wall),
		stateflow.WithExecutorLogger(quietLogger()),
	)
	exec.Start(context.Background())
	t.Cleanup(exec.Stop)

	clk := clock.New(clock.DefaultFastClock,
		clock.WithWallClock(wall),
		clock.WithRate(clock.NewRate(rate)),
		clock.WithLogger(quietLogger()),
	)
	return &env{exec: exec, wall: wall, clk: clk}
}

// settle lets chains of posted tasks run to the end.
func (e *env) settle(t *testing.T) {
	t.Helper()
	for range 5 {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		require.NoError(t, e.exec.Sync(ctx))
		cancel()
	}
}

// sleepers waits until exactly n timers are pending on the wall clock.
func (e *env) sleepers(t *testing.T, n int) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.wall.BlockUntil(n)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatalf("wall clock never reached %d timers", n)
	}
}

func (e *env) now() int64 {
	return e.clk.Time()
}

// blocked reads the flow's suspension state on the executor goroutine.
func blocked(e *env, f *stateflow.Flow) stateflow.Blocked {
	ch := make(chan stateflow.Blocked, 1)
	e.exec.Post(func() { ch <- f.Blocked() })
	select {
	case b := <-ch:
		return b
	case <-time.After(waitFor):
		return stateflow.BlockedNone
	}
}

func newCounted(e *env, opts ...alarm.Option) (*alarm.Alarm, *atomic.Int32) {
	var fired atomic.Int32
	a := alarm.New(e.exec, e.clk, func() { fired.Add(1) },
		append([]alarm.Option{alarm.WithFlowOptions(stateflow.WithFlowLogger(quietLogger()))}, opts...)...)
	return a, &fired
}

func TestAlarm_StartsDisarmed(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)
	e.settle(t)

	_, armed := a.Expires()
	assert.False(t, armed)
	assert.Equal(t, stateflow.BlockedWaiting, blocked(e, a.Flow))
	assert.Same(t, e.clk, a.Clock())
	assert.Zero(t, fired.Load())
}

func TestAlarm_ForwardFiresOnceAtDeadline(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)
	deadline := e.now() + 10

	a.Set(deadline)
	e.settle(t)
	e.sleepers(t, 1)
	assert.Equal(t, stateflow.BlockedSleeping, blocked(e, a.Flow))

	e.wall.Advance(9 * time.Second)
	e.settle(t)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, tick)
	assert.Less(t, e.now(), deadline)

	e.wall.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
	assert.GreaterOrEqual(t, e.now(), deadline)

	e.settle(t)
	assert.Equal(t, stateflow.BlockedWaiting, blocked(e, a.Flow))
	_, armed := a.Expires()
	assert.False(t, armed, "firing disarms")

	e.wall.Advance(time.Hour)
	e.settle(t)
	assert.Equal(t, int32(1), fired.Load())
}

func TestAlarm_BackwardFiresOnceAtDeadline(t *testing.T) {
	e := newEnv(t, -1)
	a, fired := newCounted(e)
	deadline := e.now() - 10

	a.Set(deadline)
	e.settle(t)
	e.sleepers(t, 1)

	e.wall.Advance(9 * time.Second)
	e.settle(t)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, tick)
	assert.Greater(t, e.now(), deadline)

	e.wall.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
	assert.LessOrEqual(t, e.now(), deadline)

	e.wall.Advance(time.Hour)
	e.settle(t)
	assert.Equal(t, int32(1), fired.Load())
}

func TestAlarm_PastDeadlineFiresImmediately(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	a.Set(e.now() - 1)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_LastSetWins(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)
	e.settle(t)
	first, second := e.now()+5, e.now()+20

	// Both calls land before the flow runs again.
	done := make(chan struct{})
	e.exec.Post(func() {
		a.Set(first)
		a.Set(second)
		close(done)
	})
	<-done
	e.settle(t)
	e.sleepers(t, 1)

	got, armed := a.Expires()
	assert.True(t, armed)
	assert.Equal(t, second, got)

	e.wall.Advance(5 * time.Second)
	e.settle(t)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, tick)

	e.wall.Advance(15 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_SetWhileSleepingRetargets(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	a.Set(e.now() + 100)
	e.settle(t)
	e.sleepers(t, 1)

	a.Set(e.now() + 3)
	e.settle(t)
	e.sleepers(t, 1)

	e.wall.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)

	e.wall.Advance(200 * time.Second)
	e.settle(t)
	assert.Equal(t, int32(1), fired.Load())
}

func TestAlarm_RateScalesSleep(t *testing.T) {
	e := newEnv(t, 2)
	a, fired := newCounted(e)

	a.Set(e.now() + 10)
	e.settle(t)
	e.sleepers(t, 1)

	e.wall.Advance(5*time.Second - time.Nanosecond)
	e.settle(t)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, tick)

	e.wall.Advance(time.Nanosecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_ClearWhileSleeping(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	a.Set(e.now() + 10)
	e.settle(t)
	e.sleepers(t, 1)
	require.Equal(t, stateflow.BlockedSleeping, blocked(e, a.Flow))

	a.Clear()
	_, armed := a.Expires()
	assert.False(t, armed)
	// The sleep is not interrupted.
	assert.Equal(t, stateflow.BlockedSleeping, blocked(e, a.Flow))

	e.wall.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		return blocked(e, a.Flow) == stateflow.BlockedWaiting
	}, waitFor, tick)
	assert.Zero(t, fired.Load())
}

func TestAlarm_ClockJumpPastDeadline(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)
	deadline := e.now() + 100

	a.Set(deadline)
	e.settle(t)
	e.sleepers(t, 1)

	e.clk.Set(deadline - 50)
	e.settle(t)
	e.sleepers(t, 1)
	assert.Zero(t, fired.Load())

	// No wall time passes; the jump alone fires it.
	e.clk.Set(deadline)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_RateChangeRetargetsSleep(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	a.Set(e.now() + 40)
	e.settle(t)
	e.sleepers(t, 1)

	e.clk.SetRate(clock.NewRate(4))
	e.settle(t)
	e.sleepers(t, 1)

	e.wall.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_ReversalFiresWhenDeadlineBehind(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	a.Set(e.now() + 30)
	e.settle(t)
	e.sleepers(t, 1)

	// Running backward, a deadline ahead of the clock has been passed.
	e.clk.SetRate(clock.NewRate(-1))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
	e.settle(t)
	e.sleepers(t, 0)
}

func TestAlarm_StoppedClock(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	e.clk.Stop()
	a.Set(e.now() + 10)
	e.settle(t)
	assert.Equal(t, stateflow.BlockedWaiting, blocked(e, a.Flow))
	e.sleepers(t, 0)

	e.wall.Advance(time.Hour)
	e.settle(t)
	assert.Zero(t, fired.Load())

	e.clk.Start()
	e.settle(t)
	e.sleepers(t, 1)
	e.wall.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_StoppedClockAtDeadline(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	e.clk.Stop()
	a.Set(e.now())
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestAlarm_SetPeriod(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		delta int64
		armed bool
	}{
		{"forward", 1, 30, true},
		{"backward", -2, -30, true},
		{"stopped", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.rate)
			a, _ := newCounted(e)
			now := e.now()

			a.SetPeriod(30)
			got, armed := a.Expires()
			assert.Equal(t, tt.armed, armed)
			if tt.armed {
				assert.Equal(t, now+tt.delta, got)
			}
		})
	}
}

func TestAlarm_CallbackCanRearm(t *testing.T) {
	e := newEnv(t, 1)
	var fired atomic.Int32
	var a *alarm.Alarm
	a = alarm.New(e.exec, e.clk, func() {
		if fired.Add(1) < 3 {
			a.SetPeriod(10)
		}
	}, alarm.WithName("repeater"))
	assert.Equal(t, "repeater", a.Name())

	a.SetPeriod(10)
	for want := int32(1); want <= 3; want++ {
		e.settle(t)
		e.sleepers(t, 1)
		e.wall.Advance(10 * time.Second)
		require.Eventually(t, func() bool { return fired.Load() == want }, waitFor, tick)
	}
	e.settle(t)
	e.sleepers(t, 0)
}

func TestAlarm_Close(t *testing.T) {
	e := newEnv(t, 1)
	a, fired := newCounted(e)

	a.Set(e.now() + 10)
	e.settle(t)
	e.sleepers(t, 1)

	a.Close()
	require.Eventually(t, func() bool {
		return blocked(e, a.Flow) == stateflow.BlockedExited
	}, waitFor, tick)
	e.sleepers(t, 0)

	e.clk.Set(e.now() + 100)
	e.wall.Advance(time.Minute)
	e.settle(t)
	assert.Zero(t, fired.Load())
}
