package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	rc := c.Reconciliation
	check(rc.DateWindowDays >= 0, "reconciliation.date_window_days cannot be negative")
	check(rc.ScheduleHour >= 0 && rc.ScheduleHour <= 23, "reconciliation.schedule_hour must be between 0 and 23")
	check(rc.ScheduleMinute >= 0 && rc.ScheduleMinute <= 59, "reconciliation.schedule_minute must be between 0 and 59")
	check(strings.TrimSpace(c.Ledger.DefaultLocationMethod) != "", "ledger.default_location_method cannot be blank")

	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)

	if c.App.Env == "production" {
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot be '*' in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
	}

	return errors.Join(errs...)
}
