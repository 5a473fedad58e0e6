// Command hirepipe runs the stage-progression API server and offers local
// administration of jobs, applications, and the placement ledger.
//
// Apart from serve, every command opens the SQLite database in the
// configured data directory directly, so it works whether or not a server is
// running. WAL mode and busy retries keep concurrent writers safe.
package main
