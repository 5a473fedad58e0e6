// Package logging assembles structured slog loggers used across hirepipe.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine and API code tag log
// lines with job IDs, application IDs, stages, and correlation IDs. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
