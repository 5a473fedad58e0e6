// Package notifications delivers candidate messages through a mail relay.
//
// The default implementation POSTs ntfy-style requests (Title, Tags, Priority,
// and Email headers with a plain-text body) to the relay configured in
// config.toml and degrades to a no-op when no relay is set. Enumerated events
// cover the four candidate messages the engine sends plus a test message.
//
// Workflow code depends only on the Service interface.
package notifications
