package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records stateflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordFlowTurn records one scheduling turn of a flow and how many
	// states it ran before suspending.
	RecordFlowTurn(ctx context.Context, flow string, states int)

	// RecordDispatch records a completed dispatch with its fan-out and
	// time from fan-out to join.
	RecordDispatch(ctx context.Context, category string, handlers int, duration time.Duration)

	// RecordAlarmFired records an alarm expiration.
	RecordAlarmFired(ctx context.Context, alarm string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	flowTurns        metric.Int64Counter
	flowStates       metric.Int64Histogram
	dispatchCount    metric.Int64Counter
	dispatchHandlers metric.Int64Histogram
	dispatchLatency  metric.Float64Histogram
	alarmsFired      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("stateflow")

	flowTurns, err := meter.Int64Counter("stateflow.flow.turns",
		metric.WithDescription("Number of flow scheduling turns"),
	)
	if err != nil {
		return nil, err
	}

	flowStates, err := meter.Int64Histogram("stateflow.flow.states_per_turn",
		metric.WithDescription("States executed in one flow turn"),
	)
	if err != nil {
		return nil, err
	}

	dispatchCount, err := meter.Int64Counter("stateflow.dispatch.count",
		metric.WithDescription("Number of event dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchHandlers, err := meter.Int64Histogram("stateflow.dispatch.handlers",
		metric.WithDescription("Handlers invoked per dispatch"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("stateflow.dispatch.latency_ms",
		metric.WithDescription("Time from dispatch fan-out to join in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	alarmsFired, err := meter.Int64Counter("stateflow.alarm.fired",
		metric.WithDescription("Number of alarm expirations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		flowTurns:        flowTurns,
		flowStates:       flowStates,
		dispatchCount:    dispatchCount,
		dispatchHandlers: dispatchHandlers,
		dispatchLatency:  dispatchLatency,
		alarmsFired:      alarmsFired,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordFlowTurn records a flow turn.
func (m *otelMetrics) RecordFlowTurn(ctx context.Context, flow string, states int) {
	attrs := metric.WithAttributes(attribute.String("flow", flow))
	m.flowTurns.Add(ctx, 1, attrs)
	m.flowStates.Record(ctx, int64(states), attrs)
}

// RecordDispatch records a dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, category string, handlers int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("category", category))
	m.dispatchCount.Add(ctx, 1, attrs)
	m.dispatchHandlers.Record(ctx, int64(handlers), attrs)
	m.dispatchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordAlarmFired records an alarm expiration.
func (m *otelMetrics) RecordAlarmFired(ctx context.Context, alarm string) {
	m.alarmsFired.Add(ctx, 1, metric.WithAttributes(attribute.String("alarm", alarm)))
}
