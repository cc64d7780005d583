// Package storage persists the recipient directory and the announcement
// version marker in a local SQLite database.
//
// Recipients are soft-deleted only: a permanent delivery failure clears
// the active flag, and a later /start flips it back on. The version marker
// is a single keyed row with upsert semantics.
package storage
