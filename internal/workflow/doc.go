// Package workflow drives applications through a job's interview stages.
//
// Engine.Advance is the bulk path: given a job, a stage, and a pass-list it
// re-evaluates every pending application at that stage, advancing matches
// (selecting them at the final stage) and rejecting the rest. Engine.SetStatus
// is the manual path for single applications. Both persist through the store's
// guarded transitions and selection bundle, so terminal applications never
// move and counters are incremented once per selection.
//
// Notifications are dispatched after every persistence step has finished,
// concurrently and bounded by [notifications] concurrency. A failed send is
// reported, never rolled back.
package workflow
