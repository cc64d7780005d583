package transport

import "context"

// Outcome classifies a single delivery attempt.
//
// The broadcast executor acts on the tag, never on transport error text:
// OutcomePermanent means the recipient can only come back via a new
// registration; OutcomeTransient leaves the recipient eligible for the
// next cycle.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeTransient
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

type Update struct {
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	FirstName    string
	Text         string
}

type ChatTarget struct {
	ChatID int64
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the outbound transport collaborator.
//
// Send methods return the classified Outcome alongside the raw error; on
// success the outcome is OutcomeDelivered and err is nil.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (Outcome, error)
	SendPhoto(ctx context.Context, to ChatTarget, url, caption string) (Outcome, error)
	SendAnimation(ctx context.Context, to ChatTarget, url, caption string) (Outcome, error)
}
