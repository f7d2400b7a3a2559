// Package config loads punchclock settings.
//
// Values are layered in this order, later layers winning:
//   - built-in defaults
//   - the YAML file (~/.punchclock/config.yaml unless --config is given)
//   - a .env file in the working directory, if present
//   - PUNCHCLOCK_* environment variables
//
// The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/period"
	"github.com/balkashynov/punchclock/internal/warning"
)

// Config is the full application configuration
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Store       StoreConfig       `yaml:"store"`
	Alerts      AlertsConfig      `yaml:"alerts"`
	Identity    IdentityConfig    `yaml:"identity"`
	Log         LogConfig         `yaml:"log"`
}

type ApplicationConfig struct {
	// Timezone is an IANA name or "Local"
	Timezone string `yaml:"timezone" validate:"required"`
}

type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
	// CreateIndexes controls whether migrations build the composite
	// subject/start index. Without it period queries use the capped scan.
	CreateIndexes bool `yaml:"create_indexes"`
	PageSize      int  `yaml:"page_size" validate:"min=1,max=10000"`
	FallbackCap   int  `yaml:"fallback_cap" validate:"min=1"`
}

type AlertsConfig struct {
	Enabled                   bool    `yaml:"enabled"`
	LongWorkThresholdMinutes  float64 `yaml:"long_work_threshold_minutes" validate:"gt=0"`
	LongBreakThresholdMinutes float64 `yaml:"long_break_threshold_minutes" validate:"gt=0"`
	CheckIntervalMinutes      int     `yaml:"check_interval_minutes" validate:"min=1"`
}

// IdentityConfig is who the CLI acts as when no flags are given
type IdentityConfig struct {
	UserID   string `yaml:"user_id"`
	UserName string `yaml:"user_name"`
	TeamID   string `yaml:"team_id"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Dir returns ~/.punchclock
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".punchclock"
	}
	return filepath.Join(home, ".punchclock")
}

// DefaultPath is the config file read when no path is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration
func Default() *Config {
	dbPath, err := db.DefaultPath()
	if err != nil {
		dbPath = filepath.Join(Dir(), "punchclock.db")
	}

	return &Config{
		Application: ApplicationConfig{Timezone: "Local"},
		Store: StoreConfig{
			Path:          dbPath,
			CreateIndexes: true,
			PageSize:      period.DefaultPageSize,
			FallbackCap:   period.DefaultFallbackCap,
		},
		Alerts: AlertsConfig{
			LongWorkThresholdMinutes:  warning.DefaultLongWorkThreshold,
			LongBreakThresholdMinutes: warning.DefaultLongBreakThreshold,
			CheckIntervalMinutes:      int(warning.DefaultCheckInterval / time.Minute),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration. An empty path means DefaultPath, which may be
// absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

var validate = validator.New()

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Application.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Application.Timezone, err)
	}
	return loc, nil
}

// Warning returns the warning engine thresholds
func (c *Config) Warning() warning.Config {
	return warning.Config{
		Enabled:                   c.Alerts.Enabled,
		LongWorkThresholdMinutes:  c.Alerts.LongWorkThresholdMinutes,
		LongBreakThresholdMinutes: c.Alerts.LongBreakThresholdMinutes,
	}
}

// CheckInterval is the pause between scheduled warning scans
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Alerts.CheckIntervalMinutes) * time.Minute
}

// Period returns the period engine sizing
func (c *Config) Period() period.Options {
	return period.Options{PageSize: c.Store.PageSize, FallbackCap: c.Store.FallbackCap}
}

// NewLogger builds the slog logger described by the log section
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Debug reports whether SQL statements should be logged
func (c LogConfig) Debug() bool {
	return c.Level == "debug"
}

func (c LogConfig) level() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// StoreOptions returns the document store settings
func (c *Config) StoreOptions(logger *slog.Logger) db.Options {
	return db.Options{
		Path:          c.Store.Path,
		CreateIndexes: c.Store.CreateIndexes,
		Logger:        logger,
		LogSQL:        c.Log.Debug(),
	}
}
