package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"memebot/internal/storage"
	"memebot/internal/transport"
	"memebot/pkg/logx"
)

// handleUpdate is the inbound registration path. Only /start matters:
// it upserts the sender into the directory (reactivating a previously
// deactivated recipient) and pings the operator side channel.
func (a *App) handleUpdate(ctx context.Context, up transport.Update) {
	m := up.Message
	if m == nil {
		return
	}
	cmd := strings.Fields(m.Text)
	if len(cmd) == 0 || cmd[0] != "/start" {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.store.UpsertRecipient(rctx, storage.Recipient{
		ID:        m.ChatID,
		Username:  m.FromUsername,
		FirstName: m.FirstName,
	})
	if err != nil {
		a.log.Error("registration failed", logx.Int64("chat_id", m.ChatID), logx.Err(err))
		return
	}
	a.log.Info("recipient registered", logx.Int64("chat_id", m.ChatID), logx.String("username", m.FromUsername))

	greeting := fmt.Sprintf("Hi %s! Memes will arrive every %s.", displayName(m), a.period)
	if _, err := a.adapter.SendText(rctx, transport.ChatTarget{ChatID: m.ChatID}, greeting, nil); err != nil {
		a.log.Warn("greeting send failed", logx.Int64("chat_id", m.ChatID), logx.Err(err))
	}

	// Operator notification is best-effort; failures are ignored. The id
	// is read through the manager so a reload can redirect it live.
	if op := a.cfgMgr.Current().Telegram.OperatorChatID; op != 0 {
		note := fmt.Sprintf("🔔 New subscriber: %s", displayName(m))
		_, _ = a.adapter.SendText(rctx, transport.ChatTarget{ChatID: op}, note, nil)
	}
}

func displayName(m *transport.Message) string {
	if m.FirstName != "" {
		return m.FirstName
	}
	if m.FromUsername != "" {
		return "@" + m.FromUsername
	}
	return "there"
}
