package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/service/clock"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/ledger"
)

const (
	LedgerBackendRedis    = "redis"
	LedgerBackendPostgres = "postgres"
	LedgerBackendMemory   = "memory"
)

type ReminderConfig struct {
	// DefaultTimezone applies to profiles that carry no timezone.
	DefaultTimezone string `envconfig:"DEFAULT_TIMEZONE" default:"UTC"`
	// ReferenceTimezone is where due-date calendar days are counted.
	ReferenceTimezone string `envconfig:"REFERENCE_TIMEZONE" default:"UTC"`

	DueDateLeadDays     int     `envconfig:"DUE_DATE_LEAD_DAYS" default:"3"`
	HistoryDays         int     `envconfig:"HABIT_HISTORY_DAYS" default:"14"`
	MinSamples          int     `envconfig:"HABIT_MIN_SAMPLES" default:"7"`
	ConfidenceThreshold float64 `envconfig:"HABIT_CONFIDENCE_THRESHOLD" default:"0.5"`
	WindowMinMinutes    int     `envconfig:"HABIT_WINDOW_MIN_MINUTES" default:"15"`
	WindowMaxMinutes    int     `envconfig:"HABIT_WINDOW_MAX_MINUTES" default:"45"`

	Workers  int `envconfig:"JOB_WORKERS" default:"8"`
	PageSize int `envconfig:"JOB_PAGE_SIZE" default:"200"`

	CandidateTimeout   time.Duration `envconfig:"CANDIDATE_TIMEOUT" default:"10s"`
	EnumerationTimeout time.Duration `envconfig:"ENUMERATION_TIMEOUT" default:"60s"`
	DispatchTimeout    time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"10s"`
	// LedgerPendingTTL must exceed ledger.MinPendingTTL(DispatchTimeout).
	LedgerPendingTTL time.Duration `envconfig:"LEDGER_PENDING_TTL" default:"15m"`
	LedgerBackend    string        `envconfig:"LEDGER_BACKEND" default:"redis"`
}

func (c *ReminderConfig) DefaultLocation() (*time.Location, error) {
	return loadLocation("DEFAULT_TIMEZONE", c.DefaultTimezone)
}

func (c *ReminderConfig) ReferenceLocation() (*time.Location, error) {
	return loadLocation("REFERENCE_TIMEZONE", c.ReferenceTimezone)
}

func (c *ReminderConfig) Window() clock.Window {
	return clock.Window{MinMinutes: c.WindowMinMinutes, MaxMinutes: c.WindowMaxMinutes}
}

func (c *ReminderConfig) Validate() error {
	var errs []error

	if _, err := c.DefaultLocation(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ReferenceLocation(); err != nil {
		errs = append(errs, err)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"DUE_DATE_LEAD_DAYS", c.DueDateLeadDays},
		{"HABIT_HISTORY_DAYS", c.HistoryDays},
		{"HABIT_MIN_SAMPLES", c.MinSamples},
		{"JOB_WORKERS", c.Workers},
		{"JOB_PAGE_SIZE", c.PageSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}

	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("HABIT_CONFIDENCE_THRESHOLD must be in (0, 1], got %v", c.ConfidenceThreshold))
	}
	if err := c.Window().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("HABIT_WINDOW_MIN_MINUTES/HABIT_WINDOW_MAX_MINUTES: %w", err))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"CANDIDATE_TIMEOUT", c.CandidateTimeout},
		{"ENUMERATION_TIMEOUT", c.EnumerationTimeout},
		{"DISPATCH_TIMEOUT", c.DispatchTimeout},
		{"LEDGER_PENDING_TTL", c.LedgerPendingTTL},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}
	// A reservation must outlive the dispatch and every ledger write retry.
	if c.DispatchTimeout > 0 && c.LedgerPendingTTL > 0 {
		if floor := ledger.MinPendingTTL(c.DispatchTimeout); c.LedgerPendingTTL <= floor {
			errs = append(errs, fmt.Errorf("LEDGER_PENDING_TTL (%s) must exceed %s for DISPATCH_TIMEOUT %s", c.LedgerPendingTTL, floor, c.DispatchTimeout))
		}
	}

	switch c.LedgerBackend {
	case LedgerBackendRedis, LedgerBackendPostgres, LedgerBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownLedgerBackend, c.LedgerBackend))
	}

	return errors.Join(errs...)
}

func loadLocation(name, tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return loc, nil
}
