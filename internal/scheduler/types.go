package scheduler

import (
	"context"
	"sync"
	"time"
)

// Job is a unit the scheduler drives.
//
// Period == 0 declares a one-shot job: it fires once after InitialDelay
// and is then done for the process lifetime. A positive Period declares a
// recurring job: first fire after InitialDelay, then every Period.
type Job struct {
	ID           string
	InitialDelay time.Duration
	Period       time.Duration
	Timeout      time.Duration // per-run timeout; 0 disables
	Run          func(ctx context.Context) error
}

// runState is shared between fires of one job for overlap control.
type runState struct {
	mu      sync.Mutex
	running bool
}

// tryAcquire marks the job running; it reports false when a previous fire
// is still in flight, in which case this fire is skipped (not queued).
func (st *runState) tryAcquire() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.running {
		return false
	}
	st.running = true
	return true
}

func (st *runState) release() {
	st.mu.Lock()
	st.running = false
	st.mu.Unlock()
}

type jobDef struct {
	Job
	state *runState
}

// HistoryItem records one completed run, for observability and tests.
type HistoryItem struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Error    string
}
