// Package logging assembles structured slog loggers and formatting helpers used
// across animelists.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run id, stage, and season being processed. A fan-out handler
// copies console output into an optional JSON log file, and a no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
