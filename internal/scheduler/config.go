// Package scheduler triggers the expiration scan once a day at a fixed time.
package scheduler

import (
	"fmt"
	"time"
)

// Config defines when the daily scan fires.
type Config struct {
	// Hour and Minute of the daily trigger in Location.
	Hour   int `yaml:"hour"`
	Minute int `yaml:"minute"`
	// Timezone is an IANA name; "Local" or empty uses the host zone.
	Timezone string `yaml:"timezone"`
	// Enabled toggles the daily trigger; manual scans work either way.
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the default schedule: every day at 02:00 local time.
func DefaultConfig() *Config {
	return &Config{
		Hour:     2,
		Minute:   0,
		Timezone: "Local",
		Enabled:  true,
	}
}

// Validate checks the time of day and timezone.
func (c *Config) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour must be in 0..23, got %d", c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("minute must be in 0..59, got %d", c.Minute)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NextRun returns the first trigger time strictly after after.
func (c *Config) NextRun(after time.Time, loc *time.Location) time.Time {
	local := after.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, c.Hour, c.Minute, 0, 0, loc)
	}
	return next
}
