// Package store persists applications, jobs, and placement ledgers in SQLite
// and exposes the guarded transitions the workflow engine drives.
//
// The Store manages database connections, schema initialization, cohort
// queries, stage summaries, and the two kinds of writes the engine performs:
// single-application compare-and-set transitions (stage advance, rejection,
// manual status moves) and the selection bundle, which flips an application
// to SELECTED while incrementing the job's selected count and the yearly and
// per-company placement ledgers in one transaction. No other code path
// touches those counters.
//
// Transactions open with BEGIN IMMEDIATE so concurrent selections serialize
// on the write lock; the selection guard (selected_at IS NULL) is re-checked
// inside the transaction. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package store
