package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=notification_ledger.go -destination=notification_ledger_mock.go -package=domain

// NotificationLedger persists which reminders were already sent.
//
// Reserve is an atomic insert-if-absent: exactly one caller wins a key. A
// reservation not followed by RecordSent expires after ttl. RecordSent turns
// the key into a permanent entry. Release drops a reservation that is still
// owned by res.ID and never touches a recorded entry.
type NotificationLedger interface {
	HasSent(ctx context.Context, key LedgerKey) (bool, error)
	Reserve(ctx context.Context, res Reservation, ttl time.Duration) (bool, error)
	RecordSent(ctx context.Context, entry *NotificationLogEntry) error
	Release(ctx context.Context, res Reservation) error
}
