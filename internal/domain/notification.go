package domain

import "time"

const (
	DueDateReminderTitle = "Something is due soon"
	DueDateReminderBody  = "An item from one of your scanned documents is due in 3 days. Open the app to review it."

	HabitReminderTitle = "Time for your daily scan"
	HabitReminderBody  = "You usually scan around this time. Take a moment to keep your streak going."
)

// NotificationData is the typed metadata attached to a push. Only the
// fields that belong to the reminder type are set.
type NotificationData struct {
	Type     ReminderType
	UserID   string
	RecordID string
	DueDate  string
	ScanTime string
}

// Map flattens the metadata into the key/value form push transports expect.
func (d NotificationData) Map() map[string]string {
	m := map[string]string{
		"type":    d.Type.PayloadType(),
		"user_id": d.UserID,
	}
	if d.RecordID != "" {
		m["record_id"] = d.RecordID
	}
	if d.DueDate != "" {
		m["due_date"] = d.DueDate
	}
	if d.ScanTime != "" {
		m["scan_time"] = d.ScanTime
	}
	return m
}

type Notification struct {
	Token          string
	Title          string
	Body           string
	Data           NotificationData
	IdempotencyKey string
}

func NewDueDateReminder(profile UserProfile, record ActionableRecord) *Notification {
	key := DueDateKey(record.ID)
	return &Notification{
		Token: profile.DeliveryToken,
		Title: DueDateReminderTitle,
		Body:  DueDateReminderBody,
		Data: NotificationData{
			Type:     ReminderTypeDueDate,
			UserID:   profile.ID,
			RecordID: record.ID,
			DueDate:  record.DueAt.UTC().Format(time.RFC3339),
		},
		IdempotencyKey: key.String(),
	}
}

func NewHabitReminder(profile UserProfile, key LedgerKey, scanTime string) *Notification {
	return &Notification{
		Token: profile.DeliveryToken,
		Title: HabitReminderTitle,
		Body:  HabitReminderBody,
		Data: NotificationData{
			Type:     ReminderTypeHabit,
			UserID:   profile.ID,
			ScanTime: scanTime,
		},
		IdempotencyKey: key.String(),
	}
}
