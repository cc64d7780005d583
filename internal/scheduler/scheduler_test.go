package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"memebot/pkg/logx"
)

func TestOneShotJobFiresExactlyOnce(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop())
	var fires int32
	s.Add(Job{
		ID:           "once",
		InitialDelay: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&fires, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	time.Sleep(300 * time.Millisecond)
	s.Stop(context.Background())

	if n := atomic.LoadInt32(&fires); n != 1 {
		t.Fatalf("one-shot fired %d times, want 1", n)
	}
}

func TestOverlapSkipsConcurrentFire(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop())
	var running, maxConcurrent, fires int32
	block := make(chan struct{})
	s.Add(Job{
		ID:           "slow",
		InitialDelay: 5 * time.Millisecond,
		Period:       time.Second, // cron.Every floors sub-second periods to 1s
		Run: func(ctx context.Context) error {
			cur := atomic.AddInt32(&running, 1)
			if cur > atomic.LoadInt32(&maxConcurrent) {
				atomic.StoreInt32(&maxConcurrent, cur)
			}
			atomic.AddInt32(&fires, 1)
			<-block
			atomic.AddInt32(&running, -1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	// The first run blocks across more than one period; the due fires in
	// between must be skipped, not queued.
	time.Sleep(2500 * time.Millisecond)
	close(block)
	s.Stop(context.Background())

	if got := atomic.LoadInt32(&maxConcurrent); got != 1 {
		t.Fatalf("max concurrent runs = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&fires); got != 1 {
		t.Fatalf("runs = %d, want 1 (later fires skipped while running)", got)
	}
}

func TestStopPreventsPendingFire(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop())
	var fires int32
	s.Add(Job{
		ID:           "late",
		InitialDelay: 500 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&fires, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Stop(context.Background())
	time.Sleep(700 * time.Millisecond)

	if n := atomic.LoadInt32(&fires); n != 0 {
		t.Fatalf("job fired %d times after Stop, want 0", n)
	}
}

func TestHistoryRecordsFailures(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop())
	s.Add(Job{
		ID:           "fails",
		InitialDelay: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			return errors.New("no content upstream")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	time.Sleep(200 * time.Millisecond)
	s.Stop(context.Background())

	hist := s.snapshotHistory()
	if len(hist) != 1 {
		t.Fatalf("history has %d items, want 1", len(hist))
	}
	if hist[0].ID != "fails" || hist[0].Error == "" {
		t.Fatalf("unexpected history item: %+v", hist[0])
	}
}

func TestJobPanicIsContained(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop())
	var after int32
	s.Add(Job{
		ID:           "panics",
		InitialDelay: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			panic("job blew up")
		},
	})
	s.Add(Job{
		ID:           "survivor",
		InitialDelay: 50 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&after, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	time.Sleep(300 * time.Millisecond)
	s.Stop(context.Background())

	if n := atomic.LoadInt32(&after); n != 1 {
		t.Fatalf("survivor fired %d times, want 1 (panic must not kill the scheduler)", n)
	}
}
