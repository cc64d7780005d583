package scheduler

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"memebot/pkg/logx"
)

const historyCap = 200

// Service drives the engine's background jobs: the recurring content
// broadcast and the one-shot version announcement.
//
// Per job at most one run is in flight; a fire that lands while the
// previous run is still going is skipped, not queued. Stop() prevents new
// fires and waits (deadline-aware) for in-flight runs.
type Service struct {
	mu   sync.Mutex
	log  logx.Logger
	jobs []*jobDef

	c         *cron.Cron
	timers    []*time.Timer
	runCtx    context.Context
	runCancel context.CancelFunc
	runWG     sync.WaitGroup
	started   bool

	hmu     sync.Mutex
	history []HistoryItem
}

func New(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log}
}

// Add registers a job. Must be called before Start.
func (s *Service) Add(j Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, &jobDef{Job: j, state: &runState{}})
	s.mu.Unlock()
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c = cron.New()
	s.c.Start()

	for _, def := range s.jobs {
		def := def
		delay := def.InitialDelay
		if delay < 0 {
			delay = 0
		}
		t := time.AfterFunc(delay, func() {
			if def.Period > 0 {
				// Anchor the recurring schedule at the first fire, so the
				// cadence is InitialDelay, then every Period. Registered
				// before the first run so a long run overlaps the next due
				// fire and gets skipped rather than deferring the schedule.
				s.mu.Lock()
				c := s.c
				s.mu.Unlock()
				if c != nil {
					c.Schedule(cron.Every(def.Period), cron.FuncJob(func() { s.fire(def) }))
				}
			}
			s.fire(def)
		})
		s.timers = append(s.timers, t)
		s.log.Info("job armed", logx.String("job", def.ID), logx.Duration("initial_delay", delay), logx.Duration("period", def.Period))
	}
}

// fire runs one job occurrence, honoring overlap-skip and the per-run
// timeout. Called from timer and cron goroutines.
func (s *Service) fire(def *jobDef) {
	s.mu.Lock()
	runCtx := s.runCtx
	s.mu.Unlock()
	if runCtx == nil || runCtx.Err() != nil {
		return
	}

	if !def.state.tryAcquire() {
		s.log.Warn("job still running, skipping this fire", logx.String("job", def.ID))
		return
	}
	defer def.state.release()

	s.runWG.Add(1)
	defer s.runWG.Done()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in job", logx.String("job", def.ID), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	ctx := runCtx
	var cancel context.CancelFunc
	if def.Timeout > 0 {
		ctx, cancel = context.WithTimeout(runCtx, def.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := def.Run(ctx)
	dur := time.Since(start)

	item := HistoryItem{ID: def.ID, Started: start, Duration: dur}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("job failed", logx.String("job", def.ID), logx.Err(err), logx.Duration("dur", dur))
	} else {
		s.log.Debug("job completed", logx.String("job", def.ID), logx.Duration("dur", dur))
	}

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
	s.hmu.Unlock()
}

// snapshotHistory copies the recent run records, for the Stop summary.
func (s *Service) snapshotHistory() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

// Stop cancels pending fires and waits for in-flight runs until ctx
// expires, after which they are abandoned via context cancellation.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	timers := s.timers
	s.timers = nil
	c := s.c
	s.c = nil
	cancel := s.runCancel
	s.runCancel = nil
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	if c != nil {
		<-c.Stop().Done()
	}

	done := make(chan struct{})
	go func() {
		s.runWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("abandoning in-flight job runs on shutdown")
	}
	if cancel != nil {
		cancel()
	}

	hist := s.snapshotHistory()
	failed := 0
	for _, h := range hist {
		if h.Error != "" {
			failed++
		}
	}
	s.log.Info("scheduler stopped", logx.Int("runs", len(hist)), logx.Int("failed", failed))
}
