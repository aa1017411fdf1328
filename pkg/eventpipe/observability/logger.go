// Package observability provides structured logging, metrics, and tracing
// for the event pipeline.
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
	"time"
)

// EnrichLogger adds worker identity to a logger.
// Returns a new logger with component and worker fields.
func EnrichLogger(logger *slog.Logger, component string, worker int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("component", component),
		slog.Int("worker", worker),
	)
}

// LogPipelineStart logs pipeline startup.
func LogPipelineStart(logger *slog.Logger, consumers int) {
	if logger == nil {
		return
	}
	logger.Info("pipeline started",
		slog.Int("consumers", consumers),
	)
}

// LogPipelineStop logs pipeline shutdown.
func LogPipelineStop(logger *slog.Logger, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("pipeline stopped",
		slog.Float64("duration_ms", durationMs),
	)
}

// LogObserverError logs an isolated observer failure during dispatch.
func LogObserverError(logger *slog.Logger, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("observer failed",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

// LogDeadLetter logs an event entering the dead-letter queue.
func LogDeadLetter(logger *slog.Logger, eventID, reason string, retryCount int) {
	if logger == nil {
		return
	}
	logger.Warn("event dead-lettered",
		slog.String("event_id", eventID),
		slog.String("reason", reason),
		slog.Int("retry_count", retryCount),
	)
}

// LogRetryScheduled logs an upcoming dead-letter retry.
func LogRetryScheduled(logger *slog.Logger, eventID string, attempt int, delay time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("retry scheduled",
		slog.String("event_id", eventID),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
	)
}

// LogPermanentFailure logs an event discarded after exhausting its retry
// budget. This is the audit signal for unrecoverable loss.
func LogPermanentFailure(logger *slog.Logger, eventID, reason string, attempts int) {
	if logger == nil {
		return
	}
	logger.Error("event permanently failed",
		slog.String("event_id", eventID),
		slog.String("reason", reason),
		slog.Int("attempts", attempts),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
