package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Scanner.Horizon() != 30*24*time.Hour {
		t.Errorf("Expected 30 day horizon, got %s", cfg.Scanner.Horizon())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
listen: 0.0.0.0:9000
log_mode: production
classification:
  keywords: [crack, corrosion]
scanner:
  horizon_days: 14
  hour: 5
  minute: 15
  timezone: UTC
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" || cfg.LogMode != "production" {
		t.Errorf("Unexpected server settings %+v", cfg)
	}
	if diff := cmp.Diff([]string{"crack", "corrosion"}, cfg.Classification.Keywords); diff != "" {
		t.Errorf("Keywords mismatch (-want +got):\n%s", diff)
	}
	s := cfg.Scanner
	if s.HorizonDays != 14 || s.Hour != 5 || s.Minute != 15 || s.Timezone != "UTC" || s.Enabled {
		t.Errorf("Unexpected scanner settings %+v", s)
	}
	// unset keys keep their defaults
	if cfg.DBPath != DefaultConfig().DBPath {
		t.Errorf("Expected default db path, got %s", cfg.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "listen: 127.0.0.1:1\nscanner:\n  hour: 4\n")
	t.Setenv(EnvListen, "127.0.0.1:2")
	t.Setenv(EnvDB, "/tmp/override.db")
	t.Setenv(EnvLogMode, "production")
	t.Setenv(EnvScanHour, "6")
	t.Setenv(EnvScanTimezone, "UTC")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "127.0.0.1:2" || cfg.DBPath != "/tmp/override.db" || cfg.LogMode != "production" {
		t.Errorf("Expected env to override file, got %+v", cfg)
	}
	if cfg.Scanner.Hour != 6 || cfg.Scanner.Timezone != "UTC" {
		t.Errorf("Expected env scan settings, got %+v", cfg.Scanner)
	}
}

func TestEnvHourNotNumber(t *testing.T) {
	t.Setenv(EnvScanHour, "two")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for non-numeric hour")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "listen: [", "parsing config file"},
		{"hour", "scanner:\n  hour: 24\n", "hour"},
		{"minute", "scanner:\n  minute: 61\n", "minute"},
		{"horizon", "scanner:\n  horizon_days: 0\n", "horizon_days"},
		{"timezone", "scanner:\n  timezone: Nowhere/Special\n", "timezone"},
		{"empty keyword", "classification:\n  keywords: [crack, '  ']\n", "keywords"},
		{"log mode", "log_mode: verbose\n", "log_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPolicyUsesKeywords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classification.Keywords = []string{"Corrosion"}
	if diff := cmp.Diff([]string{"corrosion"}, cfg.Policy().Keywords); diff != "" {
		t.Errorf("Policy keywords mismatch (-want +got):\n%s", diff)
	}
}
