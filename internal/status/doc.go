// Package status models the lifecycle of a candidate application as a tagged
// variant rather than a free-form label.
//
// An application is NEW, REVIEWED, SHORTLISTED, sitting at STAGE_<n> of its
// job's interview pipeline, or in one of the terminal outcomes REJECTED and
// SELECTED. The stage number is carried as typed data; the STAGE_<n> string
// form only exists at the persistence and transport boundaries, where Parse
// and String convert between the two. Status values implement
// encoding.TextMarshaler plus the database/sql Scanner and Valuer interfaces
// so they can flow through JSON payloads and SQLite rows unchanged.
package status
