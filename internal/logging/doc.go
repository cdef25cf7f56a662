// Package logging assembles structured slog loggers and formatting helpers used
// across Sidelines.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so attempt code can tag log lines
// with the correlation ID of the job in flight. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
