package config

import (
	"errors"
	"fmt"
	"strconv"
)

const envPrefix = "PUNCHCLOCK_"

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from PUNCHCLOCK_* variables
func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("TIMEZONE", &c.Application.Timezone)

	str("DB_PATH", &c.Store.Path)
	boolean("CREATE_INDEXES", &c.Store.CreateIndexes)
	integer("PAGE_SIZE", &c.Store.PageSize)
	integer("FALLBACK_CAP", &c.Store.FallbackCap)

	boolean("ALERTS_ENABLED", &c.Alerts.Enabled)
	float("LONG_WORK_THRESHOLD", &c.Alerts.LongWorkThresholdMinutes)
	float("LONG_BREAK_THRESHOLD", &c.Alerts.LongBreakThresholdMinutes)
	integer("CHECK_INTERVAL", &c.Alerts.CheckIntervalMinutes)

	str("USER_ID", &c.Identity.UserID)
	str("USER_NAME", &c.Identity.UserName)
	str("TEAM_ID", &c.Identity.TeamID)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}
