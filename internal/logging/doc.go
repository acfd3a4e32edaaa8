// Package logging assembles structured slog loggers and formatting helpers used
// across actorflow.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine and work-item code can
// tag log lines with run IDs, item IDs, stages, and worker names. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
