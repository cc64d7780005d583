package broadcast

import (
	"context"
	"time"

	"memebot/internal/storage"
	"memebot/internal/transport"
)

type Config struct {
	Workers     int
	RatePerSec  int
	SendTimeout time.Duration
}

// Directory is the slice of the store the executor mutates: flipping a
// recipient inactive after a permanent delivery failure.
type Directory interface {
	DeactivateRecipient(ctx context.Context, id int64) error
}

// DeliverFunc performs one delivery attempt for one recipient and reports
// the classified outcome. It is invoked exactly once per recipient per
// broadcast.
type DeliverFunc func(ctx context.Context, r storage.Recipient) (transport.Outcome, error)

// Report accumulates per-outcome counts for one broadcast run.
type Report struct {
	ID          string
	Name        string
	Total       int
	Delivered   int
	Transient   int
	Permanent   int
	Deactivated int
	StoreFaults int
	StartedAt   time.Time
	Took        time.Duration
}
