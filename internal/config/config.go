// Package config loads the application configuration from a YAML file, with
// environment variables layered on top for secrets and deployment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/asifah/flashpoint/internal/fetch"
	"github.com/asifah/flashpoint/internal/lexicon"
)

// Duration is a time.Duration that unmarshals from "12h" style YAML strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	// Server settings
	Addr string `yaml:"addr"`

	// Storage
	DBPath string `yaml:"db_path"`

	// Refresh cadence and limits
	ScanInterval Duration `yaml:"scan_interval"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
	WindowDays   int      `yaml:"window_days"`

	// NewsAPI key; usually set via NEWSAPI_KEY rather than the file
	NewsAPIKey string `yaml:"newsapi_key"`

	// Rate limiting for the public API
	RateLimitPerDay int `yaml:"rate_limit_per_day"`

	// Logging
	LogDir   string `yaml:"log_dir"`
	LogLevel string `yaml:"log_level"`

	// Monitored targets; empty means the built-in set
	Targets []lexicon.TargetProfile `yaml:"targets"`

	// Per-target source lists; empty means the built-in set
	Sources map[string][]fetch.Source `yaml:"sources"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		DBPath:          "flashpoint.db",
		ScanInterval:    Duration(12 * time.Hour),
		FetchTimeout:    Duration(60 * time.Second),
		WindowDays:      7,
		RateLimitPerDay: 100,
		LogDir:          "",
		LogLevel:        "info",
	}
}

// Load reads the YAML file at path (missing file means defaults), loads a
// local .env if present, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A .env next to the binary is a convenience for local runs; absence is
	// not an error.
	_ = godotenv.Load()

	cfg.applyEnv()

	if len(cfg.Targets) == 0 {
		cfg.Targets = lexicon.DefaultTargets()
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = fetch.DefaultSources()
	}

	return cfg, nil
}

// applyEnv layers environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("NEWSAPI_KEY"); v != "" {
		c.NewsAPIKey = v
	}
	if v := os.Getenv("FLASHPOINT_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("FLASHPOINT_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("FLASHPOINT_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("FLASHPOINT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FLASHPOINT_SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.ScanInterval = Duration(d)
		}
	}
}

// TargetIDs returns the ids of all configured targets, in order.
func (c *Config) TargetIDs() []string {
	ids := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		ids = append(ids, t.ID)
	}
	return ids
}

// Lexicon builds the scoring lexicon from the configured targets.
func (c *Config) Lexicon() *lexicon.Lexicon {
	return lexicon.WithTargets(c.Targets)
}
