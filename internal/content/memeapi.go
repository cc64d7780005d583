package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultAPIBase = "https://meme-api.com"

// MemeAPISource queries one subreddit through a meme-api compatible
// aggregator (GET {base}/gimme/{subreddit}/{count}).
type MemeAPISource struct {
	base      string
	subreddit string
	limit     int
	client    *http.Client
}

func NewMemeAPISource(base, subreddit string, limit int, client *http.Client) *MemeAPISource {
	if base == "" {
		base = DefaultAPIBase
	}
	if limit <= 0 {
		limit = 3
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &MemeAPISource{base: base, subreddit: subreddit, limit: limit, client: client}
}

func (s *MemeAPISource) Name() string { return "r/" + s.subreddit }

type apiMeme struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Ups   int    `json:"ups"`
	NSFW  bool   `json:"nsfw"`
}

// The API returns {"memes":[...]} for count > 1 and a bare meme object for
// count == 1; decode both shapes.
type apiResponse struct {
	apiMeme
	Memes []apiMeme `json:"memes"`
}

func (s *MemeAPISource) Fetch(ctx context.Context) ([]Candidate, error) {
	url := fmt.Sprintf("%s/gimme/%s/%d", s.base, s.subreddit, s.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", s.Name(), resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", s.Name(), err)
	}

	memes := body.Memes
	if len(memes) == 0 && body.URL != "" {
		memes = []apiMeme{body.apiMeme}
	}
	out := make([]Candidate, 0, len(memes))
	for _, m := range memes {
		out = append(out, Candidate{URL: m.URL, Title: m.Title, Ups: m.Ups, NSFW: m.NSFW})
	}
	return out, nil
}
