// Package announce sends the one-time, version-gated update announcement.
package announce

import (
	"context"
	"fmt"

	"memebot/internal/broadcast"
	"memebot/internal/storage"
	"memebot/internal/transport"
	"memebot/pkg/logx"
)

// Broadcaster is satisfied by *broadcast.Executor.
type Broadcaster interface {
	Broadcast(ctx context.Context, name string, recipients []storage.Recipient, deliver broadcast.DeliverFunc) (broadcast.Report, error)
}

// Sender is the slice of the transport the gate needs.
type Sender interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.Outcome, error)
}

// Gate compares the running version against the persisted marker and
// announces to all active recipients at most once per version.
//
// The marker is written after the broadcast has run, so a crash between
// send and persist re-announces on restart: at-least-once per version.
// The property the gate guarantees is "never skip a genuinely new
// version".
type Gate struct {
	store  storage.Store
	exec   Broadcaster
	sender Sender
	log    logx.Logger
}

func New(store storage.Store, exec Broadcaster, sender Sender, log logx.Logger) *Gate {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Gate{store: store, exec: exec, sender: sender, log: log}
}

// AnnounceIfNew reports whether an announcement was sent. Store faults
// abort the run and are retried on the next process start.
func (g *Gate) AnnounceIfNew(ctx context.Context, version string) (bool, error) {
	stored, err := g.store.Version(ctx)
	if err != nil {
		return false, err
	}
	if stored == version {
		g.log.Debug("version already announced", logx.String("version", version))
		return false, nil
	}

	recipients, err := g.store.ActiveRecipients(ctx)
	if err != nil {
		return false, err
	}

	g.log.Info("announcing new version", logx.String("version", version), logx.String("previous", stored), logx.Int("recipients", len(recipients)))
	text := buildAnnouncement(version)
	opt := &transport.SendOptions{ParseMode: "Markdown", DisablePreview: true}
	_, bErr := g.exec.Broadcast(ctx, "announce:"+version, recipients, func(ctx context.Context, r storage.Recipient) (transport.Outcome, error) {
		return g.sender.SendText(ctx, transport.ChatTarget{ChatID: r.ID}, text, opt)
	})
	if bErr != nil {
		// Directory faults during the broadcast don't gate the marker:
		// delivery was attempted, which is what the marker records.
		g.log.Warn("announcement broadcast reported directory faults", logx.Err(bErr))
	}

	if err := g.store.SetVersion(ctx, version); err != nil {
		return true, err
	}
	return true, nil
}

func buildAnnouncement(version string) string {
	return fmt.Sprintf("♻️ *Bot updated to v%s!*\nEnjoy the fresh batch of fixes.", version)
}
