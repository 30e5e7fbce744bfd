package stateflow_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
)

const waitFor = 2 * time.Second
const tick = time.Millisecond

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startExecutor runs an executor on a fake clock for the duration of the test.
func startExecutor(t *testing.T) (*stateflow.Executor, clockwork.FakeClock) {
	t.Helper()
	fake := clockwork.NewFakeClock()
	exec := stateflow.NewExecutor(
		stateflow.WithClock(fake),
		stateflow.WithExecutorLogger(quietLogger()),
		stateflow.WithExecutorID("test"),
	)
	exec.Start(context.Background())
	t.Cleanup(exec.Stop)
	return exec, fake
}

// syncLoop waits until every task posted so far has run.
func syncLoop(t *testing.T, exec *stateflow.Executor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, exec.Sync(ctx))
}

// onLoop runs fn on the executor goroutine and waits for it.
func onLoop[T any](t *testing.T, exec *stateflow.Executor, fn func() T) T {
	t.Helper()
	ch := make(chan T, 1)
	exec.Post(func() { ch <- fn() })
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("executor did not run task")
		var zero T
		return zero
	}
}

// blockUntil waits until fake has n pending timers.
func blockUntil(t *testing.T, fake clockwork.FakeClock, n int) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fake.BlockUntil(n)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatalf("clock never reached %d waiters", n)
	}
}
