package stateflow

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the time base used for flow timers.
// Default: clockwork.NewRealClock()
//
// Tests pass a clockwork.FakeClock and advance it explicitly.
func WithClock(clock clockwork.Clock) ExecutorOption {
	return func(e *Executor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithExecutorLogger sets the logger for the executor and the flows
// scheduled on it.
// Default: slog.Default()
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExecutorID sets the identifier used in logs.
// Default: a random UUID.
func WithExecutorID(id string) ExecutorOption {
	return func(e *Executor) {
		if id != "" {
			e.id = id
		}
	}
}

// WithMetrics sets the metrics recorder shared by flows on this executor.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	exec := stateflow.NewExecutor(stateflow.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) ExecutorOption {
	return func(e *Executor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithFlowLogger overrides the logger inherited from the executor.
func WithFlowLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFlowMetrics overrides the metrics recorder inherited from the executor.
func WithFlowMetrics(m observability.MetricsRecorder) FlowOption {
	return func(f *Flow) {
		if m != nil {
			f.metrics = m
		}
	}
}
