package content

import (
	"context"
	"errors"
	"testing"

	"memebot/pkg/logx"
)

type fakeSource struct {
	name    string
	cands   []Candidate
	err     error
	queries int
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Fetch(ctx context.Context) ([]Candidate, error) {
	f.queries++
	return f.cands, f.err
}

func TestResolveShortCircuitsAfterFirstMatch(t *testing.T) {
	t.Parallel()
	a := &fakeSource{name: "a", cands: []Candidate{
		{URL: "https://i.example/low.png", Title: "low", Ups: 10},
		{URL: "https://i.example/hit.png", Title: "hit", Ups: 600},
	}}
	b := &fakeSource{name: "b", cands: []Candidate{
		{URL: "https://i.example/other.png", Title: "other", Ups: 900},
	}}

	r := NewResolver([]Source{a, b}, DefaultFilter(300), logx.Nop())
	item := r.Resolve(context.Background())
	if item == nil {
		t.Fatal("expected an item")
	}
	if item.URL != "https://i.example/hit.png" || item.Source != "a" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if b.queries != 0 {
		t.Fatalf("source b was queried %d times, want 0", b.queries)
	}
}

func TestResolveSkipsBelowThresholdAndRestricted(t *testing.T) {
	t.Parallel()
	// Concrete scenario: A returns [10 ups restricted, 600 ups ok];
	// threshold 300 => A's second item wins, B never queried.
	a := &fakeSource{name: "a", cands: []Candidate{
		{URL: "https://i.example/one.jpg", Ups: 10, NSFW: true},
		{URL: "https://i.example/two.jpg", Ups: 600},
	}}
	b := &fakeSource{name: "b"}

	r := NewResolver([]Source{a, b}, DefaultFilter(300), logx.Nop())
	item := r.Resolve(context.Background())
	if item == nil || item.URL != "https://i.example/two.jpg" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if b.queries != 0 {
		t.Fatal("source b should not have been queried")
	}
}

func TestResolveFallsBackPastFailingSources(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		first *fakeSource
	}{
		{name: "source error", first: &fakeSource{name: "bad", err: errors.New("boom")}},
		{name: "zero items", first: &fakeSource{name: "empty"}},
		{name: "nothing qualifies", first: &fakeSource{name: "junk", cands: []Candidate{{URL: "https://i.example/x.jpg", Ups: 1}}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			good := &fakeSource{name: "good", cands: []Candidate{{URL: "https://i.example/ok.png", Ups: 500}}}
			r := NewResolver([]Source{tt.first, good}, DefaultFilter(300), logx.Nop())
			item := r.Resolve(context.Background())
			if item == nil || item.Source != "good" {
				t.Fatalf("expected fallback to good source, got %+v", item)
			}
		})
	}
}

func TestResolveExhaustedReturnsNil(t *testing.T) {
	t.Parallel()
	a := &fakeSource{name: "a", err: errors.New("down")}
	b := &fakeSource{name: "b", cands: []Candidate{{URL: "https://i.example/meh.jpg", Ups: 5}}}

	r := NewResolver([]Source{a, b}, DefaultFilter(300), logx.Nop())
	if item := r.Resolve(context.Background()); item != nil {
		t.Fatalf("expected nil item, got %+v", item)
	}
	if a.queries != 1 || b.queries != 1 {
		t.Fatalf("expected both sources queried once, got %d/%d", a.queries, b.queries)
	}
}

func TestDefaultFilterFormats(t *testing.T) {
	t.Parallel()
	f := DefaultFilter(300)
	tests := []struct {
		url  string
		want bool
	}{
		{"https://i.example/a.jpg", true},
		{"https://i.example/a.JPG", true},
		{"https://i.example/a.jpeg", true},
		{"https://i.example/a.png", true},
		{"https://i.example/a.gif", true},
		{"https://i.example/a.mp4", false},
		{"https://v.example/watch?v=abc", false},
		{"https://i.example/gallery", false},
	}
	for _, tt := range tests {
		got := f(Candidate{URL: tt.url, Ups: 500})
		if got != tt.want {
			t.Errorf("filter(%s) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
