package repository

import (
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

const (
	statePending = "pending"
	stateSent    = "sent"
)

type ledgerRecord struct {
	SubjectID     string     `json:"subject_id"`
	ReminderType  string     `json:"reminder_type"`
	Day           string     `json:"day,omitempty"`
	State         string     `json:"state"`
	ReservationID string     `json:"reservation_id,omitempty"`
	ReservedAt    *time.Time `json:"reserved_at,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	Target        string     `json:"target,omitempty"`
	MessageID     string     `json:"message_id,omitempty"`
}

func pendingRecord(res domain.Reservation) ledgerRecord {
	reservedAt := res.ReservedAt
	return ledgerRecord{
		SubjectID:     res.Key.SubjectID,
		ReminderType:  res.Key.Type.String(),
		Day:           res.Key.Day,
		State:         statePending,
		ReservationID: res.ID,
		ReservedAt:    &reservedAt,
	}
}

func sentRecord(entry *domain.NotificationLogEntry) ledgerRecord {
	sentAt := entry.SentAt
	return ledgerRecord{
		SubjectID:    entry.Key.SubjectID,
		ReminderType: entry.Key.Type.String(),
		Day:          entry.Key.Day,
		State:        stateSent,
		SentAt:       &sentAt,
		Target:       entry.Target,
		MessageID:    entry.MessageID,
	}
}
