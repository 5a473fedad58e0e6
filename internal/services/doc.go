// Package services defines shared utilities consumed by the workflow engine,
// the store, and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, application IDs, stage numbers, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses and batch error kinds.
//
// Use these helpers when wiring new logic so operational behaviour (error
// classification, observability) stays uniform across the engine.
package services
