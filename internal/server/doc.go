// Package server exposes the stage engine over HTTP.
//
// Routes:
//
//	GET  /api/jobs                      list jobs
//	GET  /api/jobs/{id}/stages          stage summary
//	PUT  /api/jobs/{id}/stages          change the stage count
//	POST /api/jobs/{id}/stages/upload   advance a stage from a pass-list file
//	GET  /api/jobs/{id}/applications    list a job's applications
//	GET  /api/applications/{id}         one application
//	PUT  /api/applications/{id}         manual status or notes change
//	GET  /api/placements?year=Y         placement ledger
//	GET  /api/placements/drift          counter reconciliation report
//
// Every route except /healthz requires the configured bearer token. Manual
// transitions read the caller from X-Actor-ID and X-Actor-Role. Errors map to
// status codes through services.HTTPStatus. A file lock in the data directory
// keeps one server per database.
package server
