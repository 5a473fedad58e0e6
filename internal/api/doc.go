// Package api defines wire-format types and converters for the HTTP API and
// CLI. It translates store and workflow models into transport-friendly DTOs so
// consumers render them without coupling to internal types.
//
// DTOs use camelCase JSON tags. Statuses are transmitted as their canonical
// labels (NEW, REVIEWED, SHORTLISTED, STAGE_<n>, REJECTED, SELECTED).
// Timestamps use RFC3339 with milliseconds.
package api
