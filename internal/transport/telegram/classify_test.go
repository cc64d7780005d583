package telegram

import (
	"errors"
	"fmt"
	"testing"

	tele "gopkg.in/telebot.v4"

	"memebot/internal/transport"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want transport.Outcome
	}{
		{name: "nil", err: nil, want: transport.OutcomeDelivered},
		{name: "blocked", err: tele.ErrBlockedByUser, want: transport.OutcomePermanent},
		{name: "deactivated account", err: tele.ErrUserIsDeactivated, want: transport.OutcomePermanent},
		{name: "chat gone", err: tele.ErrChatNotFound, want: transport.OutcomePermanent},
		{name: "never started", err: tele.ErrNotStartedByUser, want: transport.OutcomePermanent},
		{name: "kicked", err: tele.ErrKickedFromGroup, want: transport.OutcomePermanent},
		{name: "wrapped blocked", err: fmt.Errorf("send: %w", tele.ErrBlockedByUser), want: transport.OutcomePermanent},
		{name: "too large payload", err: tele.ErrTooLarge, want: transport.OutcomeTransient},
		{name: "wrapped rate limit", err: fmt.Errorf("send: retry after 30s: %w", tele.ErrTooLarge), want: transport.OutcomeTransient},
		{name: "generic network", err: errors.New("dial tcp: i/o timeout"), want: transport.OutcomeTransient},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
