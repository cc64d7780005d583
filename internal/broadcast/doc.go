// Package broadcast fans a payload out to many recipients.
//
// Delivery semantics
//
// Best-effort, one attempt per recipient per cycle. Outcomes are
// classified by the transport (delivered, transient, permanent); a
// permanent failure deactivates the recipient in the directory so later
// cycles skip it. Transient failures are only counted: the recipient
// stays active and is retried on the next scheduled cycle, not within the
// current one.
package broadcast
