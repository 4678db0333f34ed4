// Package notifications publishes run outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Delivery failures are returned to the
// caller, which treats them as warnings: a notice is never worth failing a
// run over.
package notifications
