// Package config loads assettrack settings from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/railtms/assettrack/internal/classify"
	"github.com/railtms/assettrack/internal/scheduler"
)

// Environment variables that override file values.
const (
	EnvListen       = "ASSETTRACK_LISTEN"
	EnvDB           = "ASSETTRACK_DB"
	EnvLogMode      = "ASSETTRACK_LOG_MODE"
	EnvScanHour     = "ASSETTRACK_SCAN_HOUR"
	EnvScanTimezone = "ASSETTRACK_SCAN_TIMEZONE"
)

// Config holds daemon configuration.
type Config struct {
	// Listen is the HTTP API address.
	Listen string `yaml:"listen"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// LogMode is "development" or "production".
	LogMode string `yaml:"log_mode"`

	Classification ClassificationConfig `yaml:"classification"`
	Scanner        ScannerConfig        `yaml:"scanner"`
}

// ClassificationConfig tunes the assembly-readiness rules.
type ClassificationConfig struct {
	// Keywords flag a remark as an issue when found as a substring.
	Keywords []string `yaml:"keywords"`
}

// ScannerConfig tunes the daily expiration scan.
type ScannerConfig struct {
	// HorizonDays is how far ahead a warranty counts as expiring soon.
	HorizonDays int `yaml:"horizon_days"`

	scheduler.Config `yaml:",inline"`
}

// DefaultDir returns ~/.assettrack, or ./.assettrack when home is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".assettrack"
	}
	return filepath.Join(home, ".assettrack")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:  "127.0.0.1:7480",
		DBPath:  filepath.Join(DefaultDir(), "assettrack.db"),
		LogMode: "development",
		Classification: ClassificationConfig{
			Keywords: append([]string(nil), classify.DefaultKeywords...),
		},
		Scanner: ScannerConfig{
			HorizonDays: 30,
			Config:      *scheduler.DefaultConfig(),
		},
	}
}

// Load reads .env from the working directory, then the YAML file at path
// (~/.assettrack/config.yaml when empty), then environment overrides.
// A missing file yields defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = filepath.Join(DefaultDir(), "config.yaml")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogMode); v != "" {
		c.LogMode = v
	}
	if v := os.Getenv(EnvScanHour); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvScanHour, err)
		}
		c.Scanner.Hour = h
	}
	if v := os.Getenv(EnvScanTimezone); v != "" {
		c.Scanner.Timezone = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch c.LogMode {
	case "development", "production":
	default:
		return fmt.Errorf("log_mode must be development or production, got %q", c.LogMode)
	}
	for i, kw := range c.Classification.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("classification.keywords[%d] is empty", i)
		}
	}
	if c.Scanner.HorizonDays < 1 {
		return fmt.Errorf("scanner.horizon_days must be at least 1, got %d", c.Scanner.HorizonDays)
	}
	if err := c.Scanner.Config.Validate(); err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	return nil
}

// Horizon returns the expiring-soon window.
func (s ScannerConfig) Horizon() time.Duration {
	return time.Duration(s.HorizonDays) * 24 * time.Hour
}

// Policy builds the classification policy.
func (c *Config) Policy() classify.Policy {
	return classify.NewPolicy(c.Classification.Keywords)
}
