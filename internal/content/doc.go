// Package content discovers deliverable items from an ordered list of
// external sources.
//
// Resolution is priority-with-fallback: sources are scanned in configured
// order, each source's candidates are checked against the filter in the
// order received, and the first qualifying candidate short-circuits the
// scan. Per-source failures (timeouts, bad status, malformed JSON, empty
// results) skip to the next source and never abort the cycle.
package content
