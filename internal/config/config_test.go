package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"memebot/pkg/logx"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
version: "1.2.0"
telegram:
  token: "123:abc"
  operator_chat_id: 777
logging:
  level: debug
  console: true
storage:
  path: ./test.db
content:
  sources:
    - subreddit: ProgrammerHumor
      limit: 3
    - subreddit: wholesomememes
  min_ups: 300
  period: 30m
  initial_delay: 30s
broadcast:
  workers: 4
  rate_per_sec: 10
announce:
  delay: 10s
`

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", validYAML)
	cfg, err := NewManager(path, logx.Nop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != "1.2.0" {
		t.Fatalf("Version = %q", cfg.Version)
	}
	if cfg.Telegram.OperatorChatID != 777 {
		t.Fatalf("OperatorChatID = %d", cfg.Telegram.OperatorChatID)
	}
	if len(cfg.Content.Sources) != 2 || cfg.Content.Sources[0].Subreddit != "ProgrammerHumor" {
		t.Fatalf("sources = %+v", cfg.Content.Sources)
	}
	if cfg.Content.Sources[0].Limit != 3 || cfg.Content.Sources[1].Limit != 0 {
		t.Fatalf("limits = %+v", cfg.Content.Sources)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"version": "1.0.0",
		"telegram": {"token": "123:abc"},
		"logging": {"console": true},
		"storage": {"path": "./x.db"},
		"content": {"sources": [{"subreddit": "ITHumor"}]}
	}`)
	cfg, err := NewManager(path, logx.Nop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Content.Sources[0].Subreddit != "ITHumor" {
		t.Fatalf("sources = %+v", cfg.Content.Sources)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "config.yaml", validYAML+"\nsurprise: true\n")
	if _, err := NewManager(path, logx.Nop()).Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	path := writeFile(t, "config.yaml", `
version: "1.0.0"
logging:
  console: true
storage:
  path: ./x.db
`)
	if _, err := NewManager(path, logx.Nop()).Load(); err == nil {
		t.Fatal("expected missing-token error")
	}
}

func TestEnvOverridesToken(t *testing.T) {
	t.Setenv("MEMEBOT_TOKEN", "456:env")
	t.Setenv("MEMEBOT_DB_PATH", "/tmp/env.db")
	path := writeFile(t, "config.yaml", validYAML)
	cfg, err := NewManager(path, logx.Nop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "456:env" {
		t.Fatalf("Token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Storage.Path != "/tmp/env.db" {
		t.Fatalf("Storage.Path = %q, want env override", cfg.Storage.Path)
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := &Config{Version: "1.0.0", Telegram: TelegramConfig{Token: "t"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(cfg.Content.Sources) == 0 {
		t.Fatal("expected default sources")
	}
	if cfg.Content.MinUps != 300 {
		t.Fatalf("MinUps = %d, want 300", cfg.Content.MinUps)
	}
	if cfg.Storage.Path == "" {
		t.Fatal("expected default storage path")
	}
}

func TestDurationOr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  Duration
		def  time.Duration
		want time.Duration
	}{
		{raw: "", def: 30 * time.Minute, want: 30 * time.Minute},
		{raw: "  ", def: 30 * time.Minute, want: 30 * time.Minute},
		{raw: "10s", def: time.Minute, want: 10 * time.Second},
		{raw: "500ms", def: time.Minute, want: 500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := tt.raw.Or(tt.def); got != tt.want {
			t.Errorf("Duration(%q).Or(%v) = %v, want %v", tt.raw, tt.def, got, tt.want)
		}
	}
}

func TestValidateRejectsBadDurations(t *testing.T) {
	t.Parallel()
	for _, raw := range []Duration{"bogus", "-5s"} {
		cfg := &Config{
			Version:  "1.0.0",
			Telegram: TelegramConfig{Token: "t", PollTimeout: raw},
		}
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate accepted poll_timeout %q", raw)
		}
	}
}
