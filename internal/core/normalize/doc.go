// Package normalize coerces untrusted inbound messages into canonical
// domain events.
//
// The transform is pure: it never touches room state and has no side
// effects. Rejections (room mismatch, unknown type) are signalled with
// domain errors and are dropped silently by the caller; no acknowledgment
// or error reply is ever sent to the originating client.
package normalize
