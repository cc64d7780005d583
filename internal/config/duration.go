package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a Go duration string in a config field ("10s", "30m").
// Empty means "use the component default". Validate checks every duration
// field up front, which keeps Or error-free at the call sites.
type Duration string

func (d Duration) parse() (time.Duration, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must be >= 0")
	}
	return v, nil
}

// Or resolves the field against its component default. Unset values fall
// back to def; so do invalid ones, which Validate has already rejected.
func (d Duration) Or(def time.Duration) time.Duration {
	v, err := d.parse()
	if err != nil || v == 0 {
		return def
	}
	return v
}

func (c *Config) checkDurations() error {
	fields := []struct {
		path string
		d    Duration
	}{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"content.period", c.Content.Period},
		{"content.initial_delay", c.Content.InitialDelay},
		{"content.request_timeout", c.Content.RequestTimeout},
		{"broadcast.send_timeout", c.Broadcast.SendTimeout},
		{"announce.delay", c.Announce.Delay},
	}
	for _, f := range fields {
		if _, err := f.d.parse(); err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", f.path, f.d, err)
		}
	}
	return nil
}
