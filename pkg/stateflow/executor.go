package stateflow

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// Executor is a single-threaded run-queue plus timer service.
// Every flow turn, timer resume and posted task runs on the one loop
// goroutine, in the order it was posted, and runs to completion before
// the next task starts.
//
// Post, Sync and Stop are safe to call from any goroutine. Tasks may be
// posted before the loop starts; they run once it does.
//
// Example:
//
//	exec := stateflow.NewExecutor()
//	exec.Start(ctx)
//	defer exec.Stop()
//
//	exec.Post(func() { fmt.Println("on the loop") })
type Executor struct {
	id      string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics observability.MetricsRecorder

	mu      sync.Mutex
	queue   []func()
	spare   []func()
	running bool
	stopped bool
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}

	tasks atomic.Uint64
}

// NewExecutor creates an executor. The loop does not run until Start or Run.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		id:      uuid.New().String(),
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the executor identifier.
func (e *Executor) ID() string {
	return e.id
}

// Clock returns the time base for timers on this executor.
func (e *Executor) Clock() clockwork.Clock {
	return e.clock
}

// Logger returns the executor logger.
func (e *Executor) Logger() *slog.Logger {
	return e.logger
}

// Metrics returns the executor metrics recorder.
func (e *Executor) Metrics() observability.MetricsRecorder {
	return e.metrics
}

// Start runs the loop on a new goroutine. It returns immediately.
func (e *Executor) Start(ctx context.Context) {
	go func() {
		if err := e.Run(ctx); err != nil && err != context.Canceled {
			e.logger.Error("executor loop exited",
				slog.String("executor_id", e.id),
				slog.String("error", err.Error()))
		}
	}()
}

// Run drains the run-queue on the calling goroutine until Stop is called
// or ctx is done. It returns nil after Stop and ctx.Err() on cancellation.
func (e *Executor) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrExecutorStopped
	}
	if e.running {
		e.mu.Unlock()
		return ErrExecutorRunning
	}
	e.running = true
	e.mu.Unlock()

	observability.LogExecutorStart(e.logger, e.id)
	defer func() {
		e.mu.Lock()
		e.stopped = true
		e.queue = nil
		e.mu.Unlock()
		close(e.done)
		observability.LogExecutorStop(e.logger, e.id, e.tasks.Load())
	}()

	for {
		batch := e.drain()
		for i, task := range batch {
			select {
			case <-e.quit:
				return nil
			default:
			}
			e.runTask(task)
			batch[i] = nil
		}
		e.recycle(batch)
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quit:
			return nil
		case <-e.wake:
		}
	}
}

// Stop ends the loop and waits for the running task to finish. Tasks still
// queued are dropped. Stop must not be called from a task.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.stopped {
		running := e.running
		e.mu.Unlock()
		if running {
			<-e.done
		}
		return
	}
	e.stopped = true
	running := e.running
	close(e.quit)
	e.mu.Unlock()

	if running {
		<-e.done
	}
}

// Post appends a task to the run-queue. A nil task is a programming defect.
func (e *Executor) Post(task func()) {
	if task == nil {
		violation("executor", e.id, "nil task posted")
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		observability.LogTaskDropped(e.logger, e.id)
		return
	}
	e.queue = append(e.queue, task)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Sync blocks until every task posted before the call has run.
// Tasks those tasks post in turn are not waited for; call Sync again.
func (e *Executor) Sync(ctx context.Context) error {
	reached := make(chan struct{})

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrExecutorStopped
	}
	e.queue = append(e.queue, func() { close(reached) })
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}

	select {
	case <-reached:
		return nil
	case <-e.done:
		return ErrExecutorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TasksRun returns the number of tasks executed so far.
func (e *Executor) TasksRun() uint64 {
	return e.tasks.Load()
}

// drain swaps the queue for the spare buffer and returns the pending batch.
func (e *Executor) drain() []func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	batch := e.queue
	e.queue = e.spare[:0]
	e.spare = nil
	return batch
}

// recycle returns a drained batch buffer for reuse.
func (e *Executor) recycle(batch []func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spare == nil {
		e.spare = batch[:0]
	}
}

// runTask executes one task. A panic is logged and re-raised: a task that
// panics has broken the invariants of whatever flow it belonged to.
func (e *Executor) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			observability.LogTaskPanic(e.logger, e.id, r, string(debug.Stack()))
			panic(r)
		}
	}()
	task()
	e.tasks.Add(1)
}
