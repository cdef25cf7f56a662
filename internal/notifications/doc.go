// Package notifications delivers ntfy push messages when a commentary job
// finishes.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can publish unconditionally.
package notifications
