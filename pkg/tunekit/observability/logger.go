// Package observability provides structured logging, metrics, and
// distributed tracing for tunekit event dispatch.
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

// EnrichLogger adds dispatch context to a logger. Returns a new logger
// with dispatch_id and event fields.
func EnrichLogger(logger *slog.Logger, dispatchID, eventName string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("dispatch_id", dispatchID),
		slog.String("event", eventName),
	)
}

// LogDispatchStart logs the start of an event dispatch.
func LogDispatchStart(logger *slog.Logger, dispatchID, eventName string, connectors int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch starting",
		slog.String("dispatch_id", dispatchID),
		slog.String("event", eventName),
		slog.Int("connectors", connectors),
	)
}

// LogDispatchComplete logs successful dispatch completion.
func LogDispatchComplete(logger *slog.Logger, dispatchID, eventName string, durationMs float64, results int) {
	if logger == nil {
		return
	}
	logger.Info("dispatch completed",
		slog.String("dispatch_id", dispatchID),
		slog.String("event", eventName),
		slog.Float64("duration_ms", durationMs),
		slog.Int("results", results),
	)
}

// LogDispatchCancelled logs a dispatch halted by a Before handler.
func LogDispatchCancelled(logger *slog.Logger, dispatchID, eventName, connector, reason string) {
	if logger == nil {
		return
	}
	logger.Info("dispatch cancelled",
		slog.String("dispatch_id", dispatchID),
		slog.String("event", eventName),
		slog.String("connector", connector),
		slog.String("reason", reason),
	)
}

// LogDispatchError logs a dispatch that failed with a protocol misuse.
func LogDispatchError(logger *slog.Logger, dispatchID, eventName string, err error) {
	if logger == nil {
		return
	}
	logger.Error("dispatch failed",
		slog.String("dispatch_id", dispatchID),
		slog.String("event", eventName),
		slog.String("error", err.Error()),
	)
}

// LogHandlerError logs a recoverable handler failure captured into a result.
func LogHandlerError(logger *slog.Logger, connector, eventContext string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("handler failed",
		slog.String("connector", connector),
		slog.String("context", eventContext),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation. Returns a
// function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
