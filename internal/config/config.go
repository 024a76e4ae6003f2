package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobfeed/internal/adapter"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "JOBFEED_CONFIG"

// DefaultPath is used when neither the flag nor EnvPath is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for jobfeed.
type Config struct {
	PollingInterval  time.Duration
	SearchTTL        time.Duration
	BatchSize        int
	SweepConcurrency int
	HTTPTimeout      time.Duration
	Sources          []SourceConfig
	Storage          StorageConfig
	Notification     NotificationConfig
	HTTP             HTTPConfig
	Retry            RetryConfig
	RateLimit        RateLimitConfig
}

// SourceConfig describes one job board.
type SourceConfig struct {
	Name    string `yaml:"name"` // pracuj, praca or olx
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"` // empty for the public site
	City    string `yaml:"city"`     // empty for warszawa
}

// EnabledSources returns the enabled sources in configuration order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// StorageConfig selects the state snapshot backend.
type StorageConfig struct {
	Type        string `yaml:"type"` // sqlite, file, redis or gcs
	Path        string `yaml:"path"` // sqlite database file or state directory
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
	Bucket      string `yaml:"bucket"`
	Object      string `yaml:"object"`
}

// NotificationConfig controls which deliverer is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // log, console or slack
	WebhookURL string `yaml:"webhook_url"` // required if type is slack
}

// HTTPConfig controls the inbound trigger API.
type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// RetryConfig controls retries of transient job board failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RateLimitConfig controls the minimum gap between requests to one job board.
type RateLimitConfig struct {
	MinDelay  time.Duration
	Overrides map[string]time.Duration // keyed by source name
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.Overrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	PollingInterval string             `yaml:"polling_interval"`
	SearchTTL       string             `yaml:"search_ttl"`
	BatchSize       int                `yaml:"batch_size"`
	HTTPTimeout     string             `yaml:"http_timeout"`
	Sweep           rawSweepConfig     `yaml:"sweep"`
	Sources         []SourceConfig     `yaml:"sources"`
	Storage         StorageConfig      `yaml:"storage"`
	Notification    NotificationConfig `yaml:"notification"`
	HTTP            HTTPConfig         `yaml:"http"`
	Retry           rawRetryConfig     `yaml:"retry"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
}

type rawSweepConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawRateLimitConfig struct {
	MinDelay  string            `yaml:"min_delay"`
	Overrides map[string]string `yaml:"overrides"`
}

// ResolvePath picks the config file: the flag value, then $JOBFEED_CONFIG,
// then ./config.yaml.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. ${VAR} references are expanded first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := parseDuration("polling_interval", raw.PollingInterval, time.Hour)
	if err != nil {
		return nil, err
	}
	ttl, err := parseDuration("search_ttl", raw.SearchTTL, 30*time.Minute)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("http_timeout", raw.HTTPTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	baseDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, 5*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]time.Duration)
	for name, v := range raw.RateLimit.Overrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.overrides[%q]: %w", name, err)
		}
		overrides[name] = d
	}

	maxRetries := 2
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	sources := raw.Sources
	if len(sources) == 0 {
		for _, name := range adapter.Names {
			sources = append(sources, SourceConfig{Name: name, Enabled: true})
		}
	}

	cfg := &Config{
		PollingInterval:  interval,
		SearchTTL:        ttl,
		BatchSize:        orDefault(raw.BatchSize, 3),
		SweepConcurrency: orDefault(raw.Sweep.Concurrency, 1),
		HTTPTimeout:      httpTimeout,
		Sources:          sources,
		Storage:          raw.Storage,
		Notification:     raw.Notification,
		HTTP:             raw.HTTP,
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  baseDelay,
		},
		RateLimit: RateLimitConfig{
			MinDelay:  minDelay,
			Overrides: overrides,
		},
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "sqlite"
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Type {
		case "sqlite":
			cfg.Storage.Path = "jobfeed.db"
		case "file":
			cfg.Storage.Path = "state"
		}
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.HTTP.ListenAddr == "" {
		cfg.HTTP.ListenAddr = ":8080"
	}
}

func validate(cfg *Config) error {
	if cfg.PollingInterval < time.Second {
		return fmt.Errorf("polling_interval must be at least 1s, got %v", cfg.PollingInterval)
	}
	if cfg.SearchTTL <= 0 {
		return fmt.Errorf("search_ttl must be positive, got %v", cfg.SearchTTL)
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.SweepConcurrency < 1 {
		return fmt.Errorf("sweep.concurrency must be at least 1, got %d", cfg.SweepConcurrency)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	enabled := 0
	for _, s := range cfg.Sources {
		if !slices.Contains(adapter.Names, s.Name) {
			return fmt.Errorf("unknown source %q (want one of %s)", s.Name, strings.Join(adapter.Names, ", "))
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Storage.Type {
	case "sqlite", "file":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for type %q", cfg.Storage.Type)
		}
	case "redis":
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required when type is \"redis\"")
		}
	case "gcs":
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when type is \"gcs\"")
		}
	default:
		return fmt.Errorf("unknown storage.type %q", cfg.Storage.Type)
	}

	switch cfg.Notification.Type {
	case "log", "console":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("unknown notification.type %q", cfg.Notification.Type)
	}

	return nil
}
