package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Config is the process-wide configuration, loaded from a YAML or JSON
// file with env overrides for secrets.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "30m").
type Config struct {
	// Version is the running software version; a change here triggers the
	// one-time announcement broadcast.
	Version string `json:"version"`

	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Content   ContentConfig   `json:"content"`
	Broadcast BroadcastConfig `json:"broadcast,omitempty"`
	Announce  AnnounceConfig  `json:"announce,omitempty"`
}

type TelegramConfig struct {
	// Token can be left empty in the file and supplied via MEMEBOT_TOKEN.
	Token string `json:"token,omitempty"`

	// OperatorChatID receives best-effort new-subscriber notifications.
	// 0 disables the side channel.
	OperatorChatID int64 `json:"operator_chat_id,omitempty"`

	PollTimeout Duration `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	// Path of the sqlite database file. MEMEBOT_DB_PATH overrides.
	Path        string   `json:"path"`
	BusyTimeout Duration `json:"busy_timeout,omitempty"`
}

// SourceSpec configures one content source. Order in the list is priority
// order: earlier sources are preferred.
type SourceSpec struct {
	Subreddit string `json:"subreddit"`
	Limit     int    `json:"limit,omitempty"` // items requested per cycle, default 3
}

type ContentConfig struct {
	APIBase        string       `json:"api_base,omitempty"`
	Sources        []SourceSpec `json:"sources"`
	MinUps         int          `json:"min_ups,omitempty"` // popularity threshold, default 300
	Period         Duration     `json:"period,omitempty"`  // broadcast cadence, default 30m
	InitialDelay   Duration     `json:"initial_delay,omitempty"`
	RequestTimeout Duration     `json:"request_timeout,omitempty"`
}

type BroadcastConfig struct {
	Workers     int      `json:"workers,omitempty"`
	RatePerSec  int      `json:"rate_per_sec,omitempty"`
	SendTimeout Duration `json:"send_timeout,omitempty"`
}

type AnnounceConfig struct {
	Delay Duration `json:"delay,omitempty"` // delay after startup, default 10s
}

var defaultSources = []SourceSpec{
	{Subreddit: "ProgrammerHumor"},
	{Subreddit: "wholesomememes"},
	{Subreddit: "ITHumor"},
}

// applyEnv overlays secret-ish settings from the environment.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("MEMEBOT_TOKEN")); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMEBOT_DB_PATH")); v != "" {
		c.Storage.Path = v
	}
}

// Validate applies defaults and rejects configs the process cannot start
// with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram token is required (set telegram.token or MEMEBOT_TOKEN)")
	}
	if strings.TrimSpace(c.Version) == "" {
		return errors.New("version is required")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = "./memebot.db"
	}
	if len(c.Content.Sources) == 0 {
		c.Content.Sources = append([]SourceSpec(nil), defaultSources...)
	}
	for i, src := range c.Content.Sources {
		if strings.TrimSpace(src.Subreddit) == "" {
			return fmt.Errorf("content.sources[%d]: subreddit is required", i)
		}
	}
	if c.Content.MinUps <= 0 {
		c.Content.MinUps = 300
	}
	return c.checkDurations()
}
