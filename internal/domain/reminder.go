package domain

// ReminderType identifies the class of reminder a ledger entry guards.
type ReminderType string

const (
	ReminderTypeDueDate ReminderType = "due_date"
	ReminderTypeHabit   ReminderType = "habit"
)

func (t ReminderType) String() string {
	return string(t)
}

// PayloadType returns the value sent as the "type" field of a push payload.
func (t ReminderType) PayloadType() string {
	switch t {
	case ReminderTypeDueDate:
		return "due_date_reminder"
	case ReminderTypeHabit:
		return "habit_reminder"
	default:
		return string(t)
	}
}

// Confidence is the label attached to scored or extracted data.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

func (c Confidence) String() string {
	return string(c)
}

func (c Confidence) IsHigh() bool {
	return c == ConfidenceHigh
}
