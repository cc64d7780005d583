package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a backing-store fault. Callers abort the current
// job run on it and retry on the next scheduled fire; it is never fatal
// for the process.
var ErrUnavailable = errors.New("store unavailable")

// Config configures the sqlite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Recipient is a registered delivery destination.
//
// ID is the Telegram chat id of the private chat with the user. Active
// recipients receive broadcast cycles; the flag is cleared only by the
// broadcast executor on a permanent delivery failure and set again only by
// a new registration. Rows are never deleted.
type Recipient struct {
	ID        int64
	Username  string
	FirstName string
	Active    bool
	JoinedAt  time.Time
}

// Store is the persistence API used by the engine: the recipient
// directory plus the single-row version marker.
type Store interface {
	// UpsertRecipient registers or re-registers a recipient. It always
	// forces Active=true (re-subscription reactivates) and never creates a
	// duplicate for an existing id.
	UpsertRecipient(ctx context.Context, r Recipient) error

	// ActiveRecipients returns a snapshot of recipients eligible for
	// delivery. Mutations after the call are not reflected in the snapshot.
	ActiveRecipients(ctx context.Context) ([]Recipient, error)

	// DeactivateRecipient clears the active flag. Idempotent: unknown or
	// already-inactive ids are a no-op.
	DeactivateRecipient(ctx context.Context, id int64) error

	// Version returns the last announced version, or "" when none was
	// recorded yet.
	Version(ctx context.Context) (string, error)

	// SetVersion records the last announced version (upsert).
	SetVersion(ctx context.Context, v string) error

	Close() error
}
