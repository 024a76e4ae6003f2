package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
polling_interval: 30m
search_ttl: 10m
batch_size: 5
sweep:
  concurrency: 4
sources:
  - name: pracuj
    enabled: true
    city: krakow
  - name: olx
    enabled: false
storage:
  type: file
  path: /var/lib/jobfeed
notification:
  type: console
retry:
  max_retries: 0
  base_delay: 1s
rate_limit:
  min_delay: 3s
  overrides:
    olx: 10s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 30*time.Minute {
		t.Errorf("PollingInterval = %v, want 30m", cfg.PollingInterval)
	}
	if cfg.SearchTTL != 10*time.Minute {
		t.Errorf("SearchTTL = %v, want 10m", cfg.SearchTTL)
	}
	if cfg.BatchSize != 5 || cfg.SweepConcurrency != 4 {
		t.Errorf("BatchSize = %d, SweepConcurrency = %d", cfg.BatchSize, cfg.SweepConcurrency)
	}
	enabled := cfg.EnabledSources()
	if len(enabled) != 1 || enabled[0].Name != "pracuj" || enabled[0].City != "krakow" {
		t.Errorf("EnabledSources = %+v", enabled)
	}
	if cfg.Storage.Type != "file" || cfg.Storage.Path != "/var/lib/jobfeed" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want explicit 0", cfg.Retry.MaxRetries)
	}
	if got := cfg.RateLimit.MinDelayFor("olx"); got != 10*time.Second {
		t.Errorf("MinDelayFor(olx) = %v, want 10s", got)
	}
	if got := cfg.RateLimit.MinDelayFor("pracuj"); got != 3*time.Second {
		t.Errorf("MinDelayFor(pracuj) = %v, want 3s", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != time.Hour {
		t.Errorf("PollingInterval = %v, want 1h", cfg.PollingInterval)
	}
	if cfg.SearchTTL != 30*time.Minute {
		t.Errorf("SearchTTL = %v, want 30m", cfg.SearchTTL)
	}
	if cfg.BatchSize != 3 || cfg.SweepConcurrency != 1 {
		t.Errorf("BatchSize = %d, SweepConcurrency = %d", cfg.BatchSize, cfg.SweepConcurrency)
	}
	if len(cfg.EnabledSources()) != 3 {
		t.Errorf("EnabledSources = %+v, want all three", cfg.EnabledSources())
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "jobfeed.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("Notification.Type = %q, want log", cfg.Notification.Type)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.BaseDelay != 5*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("JOBFEED_TEST_WEBHOOK", "https://hooks.slack.com/services/T/B/X")
	cfg, err := Load(writeConfig(t, `
notification:
  type: slack
  webhook_url: ${JOBFEED_TEST_WEBHOOK}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.WebhookURL != "https://hooks.slack.com/services/T/B/X" {
		t.Errorf("WebhookURL = %q", cfg.Notification.WebhookURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "polling_interval: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"zero interval", "polling_interval: 0\n", "polling_interval"},
		{"bad duration", "search_ttl: soon\n", "search_ttl"},
		{"negative batch", "batch_size: -1\n", "batch_size"},
		{"unknown source", "sources:\n  - name: linkedin\n    enabled: true\n", "unknown source"},
		{"no enabled source", "sources:\n  - name: olx\n    enabled: false\n", "at least one source"},
		{"unknown storage", "storage:\n  type: mongo\n", "storage.type"},
		{"redis without url", "storage:\n  type: redis\n", "redis_url"},
		{"gcs without bucket", "storage:\n  type: gcs\n", "bucket"},
		{"slack without url", "notification:\n  type: slack\n", "webhook_url is required"},
		{"slack bad url", "notification:\n  type: slack\n  webhook_url: https://example.com/hook\n", "hooks.slack.com"},
		{"unknown notification", "notification:\n  type: email\n", "notification.type"},
		{"bad override", "rate_limit:\n  overrides:\n    olx: fast\n", "overrides"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load: expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("ResolvePath() = %q, want %q", got, DefaultPath)
	}

	t.Setenv(EnvPath, "/etc/jobfeed.yaml")
	if got := ResolvePath(""); got != "/etc/jobfeed.yaml" {
		t.Errorf("ResolvePath() with env = %q", got)
	}
	if got := ResolvePath("local.yaml"); got != "local.yaml" {
		t.Errorf("ResolvePath(flag) = %q, want flag to win", got)
	}
}
