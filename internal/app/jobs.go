package app

import (
	"context"
	"strings"

	"memebot/internal/content"
	"memebot/internal/storage"
	"memebot/internal/transport"
	"memebot/pkg/logx"
)

// contentJob is one discovery-and-fan-out cycle. A nil resolve result
// skips the cycle quietly; a store fault aborts it and the next scheduled
// fire retries.
func (a *App) contentJob(ctx context.Context) error {
	item := a.resolver.Resolve(ctx)
	if item == nil {
		return nil
	}

	recipients, err := a.store.ActiveRecipients(ctx)
	if err != nil {
		return err
	}

	_, err = a.exec.Broadcast(ctx, "content:"+item.Source, recipients, a.deliverItem(item))
	return err
}

// deliverItem picks the send method by payload format: gifs go out as
// animations, everything else as a photo.
func (a *App) deliverItem(item *content.Item) func(ctx context.Context, r storage.Recipient) (transport.Outcome, error) {
	animated := strings.HasSuffix(strings.ToLower(item.URL), ".gif")
	return func(ctx context.Context, r storage.Recipient) (transport.Outcome, error) {
		to := transport.ChatTarget{ChatID: r.ID}
		if animated {
			return a.adapter.SendAnimation(ctx, to, item.URL, item.Caption)
		}
		return a.adapter.SendPhoto(ctx, to, item.URL, item.Caption)
	}
}

func (a *App) announceJob(ctx context.Context) error {
	sent, err := a.gate.AnnounceIfNew(ctx, a.cfg.Version)
	if err != nil {
		return err
	}
	if sent {
		a.log.Info("version announcement completed", logx.String("version", a.cfg.Version))
	}
	return nil
}
