package clock

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// Window is an inclusive range of lead minutes before a target time of day.
type Window struct {
	MinMinutes int
	MaxMinutes int
}

// DefaultWindow brackets a nominal 30 minute lead so that a job running every
// 30 minutes cannot step over a target between two runs.
var DefaultWindow = Window{MinMinutes: 15, MaxMinutes: 45}

func (w Window) Validate() error {
	if w.MinMinutes < 0 || w.MaxMinutes < w.MinMinutes || w.MaxMinutes >= minutesPerDay {
		return fmt.Errorf("invalid lead window [%d, %d]", w.MinMinutes, w.MaxMinutes)
	}
	return nil
}

// DayDistance returns the number of calendar days from now to target, both
// taken as dates in loc. Time of day is discarded before differencing.
func DayDistance(now, target time.Time, loc *time.Location) int {
	from := calendarDate(now, loc)
	to := calendarDate(target, loc)
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// DaysBetween reports whether target lies exactly days calendar days after now.
func DaysBetween(now, target time.Time, days int, loc *time.Location) bool {
	return DayDistance(now, target, loc) == days
}

// calendarDate maps t to midnight of its local date, expressed in UTC so that
// DST transitions in loc cannot stretch or shrink a day.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return calendarDate(a, loc).Equal(calendarDate(b, loc))
}

// ParseTimeOfDay parses "HH:MM" into minutes since midnight.
func ParseTimeOfDay(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return hour*60 + minute, nil
}

// FormatTimeOfDay renders minutes since midnight as "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinutesBefore returns how many minutes the wall clock in loc must advance
// from now to reach target. The result is taken modulo one day, so a target
// just after midnight is reachable from a time just before it.
func MinutesBefore(now time.Time, target string, loc *time.Location) (int, error) {
	targetMinutes, err := ParseTimeOfDay(target)
	if err != nil {
		return 0, err
	}
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()
	return ((targetMinutes-current)%minutesPerDay + minutesPerDay) % minutesPerDay, nil
}

// IsWithinMinutesBefore reports whether now is between window.MinMinutes and
// window.MaxMinutes (inclusive) before target in loc.
func IsWithinMinutesBefore(now time.Time, target string, loc *time.Location, window Window) (bool, error) {
	lead, err := MinutesBefore(now, target, loc)
	if err != nil {
		return false, err
	}
	return lead >= window.MinMinutes && lead <= window.MaxMinutes, nil
}
