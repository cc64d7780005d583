// Package scheduler drives periodic and one-shot background jobs on
// independent timers, with at-most-one-concurrent-run per job.
package scheduler
