// Package observability provides the logging, metrics and tracing hooks
// used by the stateflow runtime.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds executor and flow context to a logger.
// Returns a new logger with executor_id and flow fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "exec-1", "alarm")
//	enriched.Debug("suspended") // includes executor_id, flow
func EnrichLogger(logger *slog.Logger, executorID, flow string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("executor_id", executorID),
		slog.String("flow", flow),
	)
}

// LogExecutorStart logs the start of an executor loop.
func LogExecutorStart(logger *slog.Logger, executorID string) {
	if logger == nil {
		return
	}
	logger.Info("executor starting",
		slog.String("executor_id", executorID),
	)
}

// LogExecutorStop logs the end of an executor loop.
func LogExecutorStop(logger *slog.Logger, executorID string, tasks uint64) {
	if logger == nil {
		return
	}
	logger.Info("executor stopped",
		slog.String("executor_id", executorID),
		slog.Uint64("tasks_run", tasks),
	)
}

// LogTaskDropped logs a task posted to an executor that is no longer running.
func LogTaskDropped(logger *slog.Logger, executorID string) {
	if logger == nil {
		return
	}
	logger.Warn("task posted to stopped executor",
		slog.String("executor_id", executorID),
	)
}

// LogTaskPanic logs a panic raised by a run-queue task.
func LogTaskPanic(logger *slog.Logger, executorID string, value any, stack string) {
	if logger == nil {
		return
	}
	logger.Error("task panicked",
		slog.String("executor_id", executorID),
		slog.Any("panic", value),
		slog.String("stack", stack),
	)
}

// LogFlowSuspend logs a flow giving up the executor.
func LogFlowSuspend(logger *slog.Logger, flow, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("flow suspended",
		slog.String("flow", flow),
		slog.String("reason", reason),
	)
}

// LogDispatch logs the fan-out of one protocol message.
func LogDispatch(logger *slog.Logger, category, event string, handlers int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatching event",
		slog.String("category", category),
		slog.String("event", event),
		slog.Int("handlers", handlers),
	)
}

// LogDispatchComplete logs the join of a dispatch.
func LogDispatchComplete(logger *slog.Logger, category, event string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch completed",
		slog.String("category", category),
		slog.String("event", event),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogAlarmArmed logs a new alarm deadline.
func LogAlarmArmed(logger *slog.Logger, alarm string, deadline int64) {
	if logger == nil {
		return
	}
	logger.Debug("alarm armed",
		slog.String("alarm", alarm),
		slog.Int64("deadline", deadline),
	)
}

// LogAlarmFired logs an alarm expiration.
func LogAlarmFired(logger *slog.Logger, alarm string, deadline, now int64) {
	if logger == nil {
		return
	}
	logger.Info("alarm fired",
		slog.String("alarm", alarm),
		slog.Int64("deadline", deadline),
		slog.Int64("clock_time", now),
	)
}

// LogClockUpdate logs a discontinuous change of a virtual clock.
func LogClockUpdate(logger *slog.Logger, clock string, now int64, rate float64, running bool) {
	if logger == nil {
		return
	}
	logger.Debug("clock updated",
		slog.String("clock", clock),
		slog.Int64("clock_time", now),
		slog.Float64("rate", rate),
		slog.Bool("running", running),
	)
}

// LogStoreError logs a failed clock persistence operation (non-fatal).
func LogStoreError(logger *slog.Logger, clock, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("clock store failed",
		slog.String("clock", clock),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
