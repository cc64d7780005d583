package broadcast

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"memebot/internal/storage"
	"memebot/internal/transport"
	"memebot/pkg/logx"
)

// Executor fans one payload out to a recipient snapshot through a bounded
// worker pool.
//
// Failure isolation is the central invariant: one slow or failing
// recipient never blocks or aborts delivery to the rest. Permanent
// failures deactivate the recipient in the directory before the worker
// moves on; transient failures leave the recipient eligible for the next
// cycle. Only directory faults surface in the returned error, and even
// then the remaining recipients are still attempted.
type Executor struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	dir Directory
	log logx.Logger
}

func New(cfg Config, dir Directory, log logx.Logger) *Executor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Executor{
		cfg:     cfg,
		limiter: newLimiter(cfg.RatePerSec),
		dir:     dir,
		log:     log,
	}
}

func newLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = 10
	}
	return rate.NewLimiter(rate.Limit(rps), rps)
}

// Apply swaps tunables at runtime (config hot reload). In-flight
// broadcasts keep their snapshot of the worker count but pick up the new
// limiter on the next send.
func (e *Executor) Apply(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.limiter = newLimiter(cfg.RatePerSec)
	e.mu.Unlock()
}

// Broadcast delivers to every recipient in the snapshot and returns the
// outcome counts. The returned error is non-nil only for directory faults
// (deactivate failing); per-recipient delivery failures are contained and
// counted, never escalated.
func (e *Executor) Broadcast(ctx context.Context, name string, recipients []storage.Recipient, deliver DeliverFunc) (Report, error) {
	e.mu.Lock()
	cfg := e.cfg
	e.mu.Unlock()

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(recipients) {
		workers = len(recipients)
	}

	rep := Report{
		ID:        uuid.NewString(),
		Name:      name,
		Total:     len(recipients),
		StartedAt: time.Now(),
	}
	log := e.log.With(logx.String("job", rep.ID), logx.String("name", name))
	if rep.Total == 0 {
		log.Debug("broadcast skipped, no active recipients")
		return rep, nil
	}
	log.Info("broadcast started", logx.Int("total", rep.Total), logx.Int("workers", workers))

	feed := make(chan storage.Recipient)
	var (
		repMu    sync.Mutex
		dirFault error
		wg       sync.WaitGroup
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for r := range feed {
				// Finish the recipient in hand, but never start a new one
				// after cancellation.
				if ctx.Err() != nil {
					continue
				}
				outcome := e.deliverOne(ctx, log, r, deliver)
				repMu.Lock()
				switch outcome {
				case transport.OutcomeDelivered:
					rep.Delivered++
				case transport.OutcomePermanent:
					rep.Permanent++
				default:
					rep.Transient++
				}
				repMu.Unlock()

				if outcome != transport.OutcomePermanent {
					continue
				}
				// Commit the liveness flip before moving to the next
				// recipient. Deactivation must land even when the run
				// context was cancelled mid-cycle, so it gets its own
				// deadline detached from ctx.
				dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				err := e.dir.DeactivateRecipient(dctx, r.ID)
				cancel()
				repMu.Lock()
				if err != nil {
					rep.StoreFaults++
					dirFault = errors.Join(dirFault, fmt.Errorf("deactivate %d: %w", r.ID, err))
					log.Error("recipient deactivation failed", logx.Int64("recipient", r.ID), logx.Err(err))
				} else {
					rep.Deactivated++
					log.Info("recipient deactivated", logx.Int64("recipient", r.ID))
				}
				repMu.Unlock()
			}
		}()
	}

feedLoop:
	for _, r := range recipients {
		select {
		case feed <- r:
		case <-ctx.Done():
			// Workers finish their current recipient; the remainder of the
			// snapshot is abandoned cleanly.
			break feedLoop
		}
	}
	close(feed)
	wg.Wait()

	rep.Took = time.Since(rep.StartedAt)
	fields := []logx.Field{
		logx.Int("total", rep.Total),
		logx.Int("delivered", rep.Delivered),
		logx.Int("transient", rep.Transient),
		logx.Int("permanent", rep.Permanent),
		logx.Int("deactivated", rep.Deactivated),
		logx.Duration("took", rep.Took),
	}
	if rep.Permanent > 0 || rep.Transient > 0 {
		log.Warn("broadcast finished with failures", fields...)
	} else {
		log.Info("broadcast finished", fields...)
	}
	return rep, dirFault
}

// deliverOne runs a single delivery attempt with rate limiting, a bounded
// send timeout, and panic containment. The attempt runs detached: a
// deliver that ignores its context cannot hold the worker past the
// timeout, it is abandoned and counted transient instead.
func (e *Executor) deliverOne(ctx context.Context, log logx.Logger, r storage.Recipient, deliver DeliverFunc) transport.Outcome {
	e.mu.Lock()
	lim := e.limiter
	timeout := e.cfg.SendTimeout
	e.mu.Unlock()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if err := lim.Wait(ctx); err != nil {
		return transport.OutcomeTransient
	}

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		outcome transport.Outcome
		err     error
	}
	res := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error("panic delivering to recipient", logx.Int64("recipient", r.ID), logx.Any("panic", p), logx.String("stack", string(debug.Stack())))
				res <- result{outcome: transport.OutcomeTransient}
			}
		}()
		out, err := deliver(sctx, r)
		res <- result{outcome: out, err: err}
	}()

	select {
	case got := <-res:
		switch got.outcome {
		case transport.OutcomeDelivered:
		case transport.OutcomePermanent:
			log.Info("permanent delivery failure", logx.Int64("recipient", r.ID), logx.Err(got.err))
		default:
			log.Warn("transient delivery failure", logx.Int64("recipient", r.ID), logx.Err(got.err))
		}
		return got.outcome
	case <-sctx.Done():
		log.Warn("delivery attempt abandoned after timeout", logx.Int64("recipient", r.ID), logx.Duration("timeout", timeout))
		return transport.OutcomeTransient
	}
}
