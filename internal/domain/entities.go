package domain

import (
	"fmt"
	"time"
)

// ScanEvent is one observed scan, localized to the user's timezone at capture.
type ScanEvent struct {
	ID        string
	UserID    string
	Hour      int
	Minute    int
	CreatedAt time.Time
}

// MinutesOfDay returns the event's wall-clock time as minutes since midnight.
func (e ScanEvent) MinutesOfDay() int {
	return e.Hour*60 + e.Minute
}

// ActionableRecord is a scanned document summary carrying a due item.
type ActionableRecord struct {
	ID          string
	UserID      string
	DueAt       time.Time
	Confidence  Confidence
	Description string
}

// EligibleForDueDateReminder reports whether the record may trigger a reminder.
func (r ActionableRecord) EligibleForDueDateReminder() bool {
	return r.Confidence.IsHigh() && !r.DueAt.IsZero()
}

type UserProfile struct {
	ID                   string
	DeliveryToken        string
	NotificationsEnabled bool
	Timezone             string
}

// CanReceive reports whether a push can be delivered to the user at all.
func (p UserProfile) CanReceive() bool {
	return p.NotificationsEnabled && p.DeliveryToken != ""
}

// Location resolves the profile timezone. An empty timezone resolves to
// fallback; an unknown one is an error.
func (p UserProfile) Location(fallback *time.Location) (*time.Location, error) {
	if p.Timezone == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, p.Timezone, err)
	}
	return loc, nil
}
