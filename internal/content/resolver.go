package content

import (
	"context"
	"sync"

	"memebot/pkg/logx"
)

// Source is an external content provider queried for candidates.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

// Resolver scans an ordered source list for the first qualifying item.
//
// The scan is strictly sequential: earlier sources are preferred, and the
// first candidate passing the filter wins without querying further
// sources. A failing or empty source is skipped, never fatal.
type Resolver struct {
	mu      sync.Mutex
	sources []Source
	filter  Filter

	log logx.Logger
}

func NewResolver(sources []Source, filter Filter, log logx.Logger) *Resolver {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Resolver{sources: sources, filter: filter, log: log}
}

// Apply swaps the source list and filter. Used by config hot reload; an
// in-flight Resolve keeps its snapshot.
func (r *Resolver) Apply(sources []Source, filter Filter) {
	r.mu.Lock()
	r.sources = sources
	r.filter = filter
	r.mu.Unlock()
}

// Resolve returns the first qualifying item, or nil when every source is
// exhausted. A nil result is content scarcity, not a fault: the caller
// skips the cycle.
func (r *Resolver) Resolve(ctx context.Context) *Item {
	r.mu.Lock()
	sources := r.sources
	filter := r.filter
	r.mu.Unlock()

	for _, src := range sources {
		if ctx.Err() != nil {
			return nil
		}
		cands, err := src.Fetch(ctx)
		if err != nil {
			r.log.Warn("content source failed, trying next", logx.String("source", src.Name()), logx.Err(err))
			continue
		}
		if len(cands) == 0 {
			r.log.Debug("content source returned nothing", logx.String("source", src.Name()))
			continue
		}
		for _, c := range cands {
			if !filter(c) {
				continue
			}
			r.log.Info("content resolved", logx.String("source", src.Name()), logx.String("url", c.URL), logx.Int("ups", c.Ups))
			return &Item{URL: c.URL, Caption: c.Title, Source: src.Name()}
		}
	}
	r.log.Info("no qualifying content found this cycle")
	return nil
}
