package event_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

func startExecutor(t *testing.T) *stateflow.Executor {
	t.Helper()
	exec := stateflow.NewExecutor(stateflow.WithExecutorLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	exec.Start(context.Background())
	t.Cleanup(exec.Stop)
	return exec
}

func TestDispatcher_OneReportAtATime(t *testing.T) {
	exec := startExecutor(t)
	reg := event.NewRegistry()
	j := &journal{}
	slow := newSpy("slow", j)
	slow.hold = true
	reg.Register(slow, base, 0xFF)

	d := event.NewDispatcher(exec, reg)

	var mu sync.Mutex
	var completed []event.ID
	for i := range 3 {
		id := base + event.ID(i)
		d.Enqueue(context.Background(), event.CategoryReport, &event.Report{Event: id}, func() {
			mu.Lock()
			completed = append(completed, id)
			mu.Unlock()
		})
	}

	// Only the first report is in flight until its ticket is released.
	require.Eventually(t, func() bool { return len(j.names()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, j.names(), 1)
	assert.Equal(t, 2, d.Pending())

	for want := 2; want <= 3; want++ {
		slow.release()
		require.Eventually(t, func() bool { return len(j.names()) == want }, time.Second, time.Millisecond)
	}
	slow.release()

	require.Eventually(t, func() bool { return d.Handled() == 3 }, time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []event.ID{base, base + 1, base + 2}, completed)
}

func TestDispatcher_ImmediateHandlers(t *testing.T) {
	exec := startExecutor(t)
	reg := event.NewRegistry()
	j := &journal{}
	reg.Register(newSpy("a", j), base, 0)
	reg.Register(newSpy("b", j), 0, event.MaskGlobal)

	d := event.NewDispatcher(exec, reg)

	done := make(chan struct{}, 10)
	for range 10 {
		d.Enqueue(nil, event.CategoryReport, &event.Report{Event: base}, func() { done <- struct{}{} })
	}
	for range 10 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("dispatch did not complete")
		}
	}
	assert.Len(t, j.names(), 20)
	assert.Equal(t, uint64(10), d.Handled())
	assert.Equal(t, 0, d.Pending())
}

func TestDispatcher_Unmatched(t *testing.T) {
	exec := startExecutor(t)
	d := event.NewDispatcher(exec, event.NewRegistry())

	done := make(chan struct{})
	d.Enqueue(context.Background(), event.CategoryIdentifyGlobal, &event.Report{Mask: event.MaskGlobal}, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unmatched dispatch did not complete")
	}
}
