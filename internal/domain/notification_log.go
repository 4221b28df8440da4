package domain

import (
	"time"
)

// DayLayout is the calendar-day format used in habit ledger keys.
const DayLayout = "2006-01-02"

// LedgerKey is the composite key of a notification log entry. Day is empty
// for record-scoped reminders.
type LedgerKey struct {
	SubjectID string
	Type      ReminderType
	Day       string
}

// DueDateKey keys a due-date reminder by record: it fires once ever.
func DueDateKey(recordID string) LedgerKey {
	return LedgerKey{SubjectID: recordID, Type: ReminderTypeDueDate}
}

// HabitKey keys a habit reminder by user and local calendar day.
func HabitKey(userID string, day time.Time) LedgerKey {
	return LedgerKey{SubjectID: userID, Type: ReminderTypeHabit, Day: day.Format(DayLayout)}
}

func (k LedgerKey) String() string {
	if k.Day == "" {
		return k.Type.String() + ":" + k.SubjectID
	}
	return k.Type.String() + ":" + k.SubjectID + ":" + k.Day
}

// Reservation is an in-flight claim on a ledger key taken before dispatch.
type Reservation struct {
	Key        LedgerKey
	ID         string
	ReservedAt time.Time
}

// NotificationLogEntry is the persisted fact that a reminder was sent.
type NotificationLogEntry struct {
	Key       LedgerKey
	SentAt    time.Time
	Target    string
	MessageID string
}

func NewNotificationLogEntry(key LedgerKey, target, messageID string) *NotificationLogEntry {
	return &NotificationLogEntry{
		Key:       key,
		SentAt:    time.Now().UTC(),
		Target:    target,
		MessageID: messageID,
	}
}
