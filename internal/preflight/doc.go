// Package preflight provides readiness checks for the filesystem, database,
// and mail relay that hirepipe depends on.
//
// The server runs RunAll at startup and logs failures; the CLI "status"
// command prints the same results.
package preflight
