package content

// Item is one piece of deliverable content. Items are produced fresh each
// discovery cycle and never persisted.
type Item struct {
	URL     string
	Caption string
	Source  string // which source produced it, for logs and tests
}

// Candidate is a raw entry returned by a source, before filtering.
type Candidate struct {
	URL   string
	Title string
	Ups   int
	NSFW  bool
}

// Filter decides whether a candidate qualifies for delivery.
type Filter func(Candidate) bool

// allowedExt is the payload format allow-list: static images plus gif
// animations. Anything else (video, html, galleries) is rejected.
var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// DefaultFilter accepts candidates with a popularity score above minUps
// that are not marked NSFW and whose payload format is in the allow-list.
func DefaultFilter(minUps int) Filter {
	return func(c Candidate) bool {
		return c.Ups > minUps && !c.NSFW && allowedFormat(c.URL)
	}
}

func allowedFormat(url string) bool {
	i := lastDot(url)
	if i < 0 {
		return false
	}
	return allowedExt[toLowerASCII(url[i:])]
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.':
			return i
		case '/', '?':
			return -1
		}
	}
	return -1
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
