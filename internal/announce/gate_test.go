package announce

import (
	"context"
	"errors"
	"testing"

	"memebot/internal/broadcast"
	"memebot/internal/storage"
	"memebot/internal/transport"
	"memebot/pkg/logx"
)

type fakeStore struct {
	version    string
	versionErr error
	active     []storage.Recipient
	setCalls   []string
}

func (s *fakeStore) UpsertRecipient(ctx context.Context, r storage.Recipient) error { return nil }
func (s *fakeStore) ActiveRecipients(ctx context.Context) ([]storage.Recipient, error) {
	return s.active, nil
}
func (s *fakeStore) DeactivateRecipient(ctx context.Context, id int64) error { return nil }
func (s *fakeStore) Version(ctx context.Context) (string, error) {
	return s.version, s.versionErr
}
func (s *fakeStore) SetVersion(ctx context.Context, v string) error {
	s.version = v
	s.setCalls = append(s.setCalls, v)
	return nil
}
func (s *fakeStore) Close() error { return nil }

type fakeBroadcaster struct {
	calls   int
	lastLen int
	deliver bool // invoke the deliver fn against each recipient
}

func (b *fakeBroadcaster) Broadcast(ctx context.Context, name string, recipients []storage.Recipient, deliver broadcast.DeliverFunc) (broadcast.Report, error) {
	b.calls++
	b.lastLen = len(recipients)
	rep := broadcast.Report{Name: name, Total: len(recipients)}
	if b.deliver {
		for _, r := range recipients {
			if out, _ := deliver(ctx, r); out == transport.OutcomeDelivered {
				rep.Delivered++
			}
		}
	}
	return rep, nil
}

type fakeSender struct {
	sent []int64
}

func (s *fakeSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.Outcome, error) {
	s.sent = append(s.sent, to.ChatID)
	return transport.OutcomeDelivered, nil
}

func TestAnnounceIfNewIsIdempotent(t *testing.T) {
	t.Parallel()
	st := &fakeStore{active: []storage.Recipient{{ID: 1}, {ID: 2}}}
	bc := &fakeBroadcaster{deliver: true}
	snd := &fakeSender{}
	g := New(st, bc, snd, logx.Nop())

	sent, err := g.AnnounceIfNew(context.Background(), "1.2.0")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !sent {
		t.Fatal("first call should announce")
	}
	if st.version != "1.2.0" {
		t.Fatalf("marker = %q, want 1.2.0", st.version)
	}
	if len(snd.sent) != 2 {
		t.Fatalf("sent to %d recipients, want 2", len(snd.sent))
	}

	sent, err = g.AnnounceIfNew(context.Background(), "1.2.0")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if sent {
		t.Fatal("second call must be a no-op")
	}
	if bc.calls != 1 {
		t.Fatalf("broadcast ran %d times, want 1", bc.calls)
	}
	if st.version != "1.2.0" {
		t.Fatalf("marker = %q after no-op, want 1.2.0", st.version)
	}
}

func TestAnnounceNewVersionReplacesOldMarker(t *testing.T) {
	t.Parallel()
	st := &fakeStore{version: "1.1.0", active: []storage.Recipient{{ID: 5}}}
	bc := &fakeBroadcaster{}
	g := New(st, bc, &fakeSender{}, logx.Nop())

	sent, err := g.AnnounceIfNew(context.Background(), "1.2.0")
	if err != nil || !sent {
		t.Fatalf("sent=%v err=%v, want true/nil", sent, err)
	}
	if st.version != "1.2.0" {
		t.Fatalf("marker = %q, want 1.2.0", st.version)
	}
	if bc.lastLen != 1 {
		t.Fatalf("broadcast saw %d recipients, want 1", bc.lastLen)
	}
}

func TestAnnounceAbortsOnStoreFault(t *testing.T) {
	t.Parallel()
	st := &fakeStore{versionErr: storage.ErrUnavailable}
	bc := &fakeBroadcaster{}
	g := New(st, bc, &fakeSender{}, logx.Nop())

	sent, err := g.AnnounceIfNew(context.Background(), "1.2.0")
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("err = %v, want store fault", err)
	}
	if sent || bc.calls != 0 {
		t.Fatal("no announcement may happen when the marker cannot be read")
	}
	if len(st.setCalls) != 0 {
		t.Fatal("marker must not be written on abort")
	}
}
