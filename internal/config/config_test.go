package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Alerts.Enabled {
		t.Error("alerts should default to disabled")
	}
	w := cfg.Warning()
	if w.LongWorkThresholdMinutes != 480 || w.LongBreakThresholdMinutes != 60 {
		t.Errorf("thresholds = %+v", w)
	}
	if cfg.CheckInterval() != 30*time.Minute {
		t.Errorf("CheckInterval = %v", cfg.CheckInterval())
	}
	if p := cfg.Period(); p.PageSize != 100 || p.FallbackCap != 1000 {
		t.Errorf("Period = %+v", p)
	}
	if !cfg.Store.CreateIndexes {
		t.Error("indexes should be created by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
application:
  timezone: UTC
store:
  path: /tmp/pc.db
  page_size: 25
alerts:
  enabled: true
  long_work_threshold_minutes: 420
identity:
  user_id: U1
  team_id: T1
log:
  format: json
`)

	cfg, err := load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Application.Timezone != "UTC" || cfg.Store.PageSize != 25 || cfg.Store.Path != "/tmp/pc.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.Store.FallbackCap != 1000 || !cfg.Store.CreateIndexes || cfg.Alerts.LongBreakThresholdMinutes != 60 {
		t.Errorf("defaults lost: %+v", cfg.Store)
	}
	if !cfg.Warning().Enabled || cfg.Warning().LongWorkThresholdMinutes != 420 {
		t.Errorf("alerts = %+v", cfg.Alerts)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "store:\n  page_size: 25\n")

	t.Setenv("PUNCHCLOCK_PAGE_SIZE", "50")
	t.Setenv("PUNCHCLOCK_ALERTS_ENABLED", "true")
	t.Setenv("PUNCHCLOCK_LONG_BREAK_THRESHOLD", "45.5")
	t.Setenv("PUNCHCLOCK_CREATE_INDEXES", "false")
	t.Setenv("PUNCHCLOCK_USER_ID", "U9")

	cfg, err := load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.PageSize != 50 || !cfg.Alerts.Enabled || cfg.Alerts.LongBreakThresholdMinutes != 45.5 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Store.CreateIndexes || cfg.Identity.UserID != "U9" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "")
	envFile := writeFile(t, dir, ".env", "PUNCHCLOCK_TEAM_ID=T-dotenv\n")

	// restored after the test; godotenv only sets variables that are unset
	t.Setenv("PUNCHCLOCK_TEAM_ID", "")
	os.Unsetenv("PUNCHCLOCK_TEAM_ID")

	cfg, err := load(path, envFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Identity.TeamID != "T-dotenv" {
		t.Errorf("TeamID = %q", cfg.Identity.TeamID)
	}
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("PUNCHCLOCK_PAGE_SIZE", "lots")
	path := writeFile(t, t.TempDir(), "config.yaml", "")
	_, err := load(path, "")
	if err == nil || !strings.Contains(err.Error(), "PUNCHCLOCK_PAGE_SIZE") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page size", func(c *Config) { c.Store.PageSize = 0 }},
		{"zero cap", func(c *Config) { c.Store.FallbackCap = 0 }},
		{"negative threshold", func(c *Config) { c.Alerts.LongWorkThresholdMinutes = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty path", func(c *Config) { c.Store.Path = "" }},
		{"unknown timezone", func(c *Config) { c.Application.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x.db"); got != filepath.Join(home, "x.db") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/x.db"); got != "/abs/x.db" {
		t.Errorf("expandHome = %q", got)
	}
}
