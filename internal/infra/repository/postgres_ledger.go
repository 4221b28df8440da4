package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

// postgresLedger relies on the (subject_id, reminder_type, day) primary key
// of notification_log as the uniqueness gate.
type postgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) domain.NotificationLedger {
	return &postgresLedger{
		pool: pool,
	}
}

func (r *postgresLedger) HasSent(ctx context.Context, key domain.LedgerKey) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS(
  SELECT 1 FROM notification_log
  WHERE subject_id = $1 AND reminder_type = $2 AND day = $3
    AND (state = 'sent' OR expires_at > now())
)`, key.SubjectID, key.Type.String(), key.Day).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Reserve inserts a pending row, or takes over a pending row whose
// reservation already expired.
func (r *postgresLedger) Reserve(ctx context.Context, res domain.Reservation, ttl time.Duration) (bool, error) {
	reservedAt := res.ReservedAt.UTC()
	tag, err := r.pool.Exec(ctx, `
INSERT INTO notification_log (subject_id, reminder_type, day, state, reservation_id, reserved_at, expires_at)
VALUES ($1, $2, $3, 'pending', $4, $5, $6)
ON CONFLICT (subject_id, reminder_type, day) DO UPDATE
SET reservation_id = EXCLUDED.reservation_id,
    reserved_at = EXCLUDED.reserved_at,
    expires_at = EXCLUDED.expires_at
WHERE notification_log.state = 'pending' AND notification_log.expires_at <= EXCLUDED.reserved_at
`, res.Key.SubjectID, res.Key.Type.String(), res.Key.Day, res.ID, reservedAt, reservedAt.Add(ttl))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *postgresLedger) RecordSent(ctx context.Context, entry *domain.NotificationLogEntry) error {
	if entry == nil {
		return ErrInvalidLedgerEntry
	}

	sentAt := entry.SentAt.UTC()
	_, err := r.pool.Exec(ctx, `
INSERT INTO notification_log (subject_id, reminder_type, day, state, reserved_at, sent_at, target, message_id)
VALUES ($1, $2, $3, 'sent', $4, $4, $5, $6)
ON CONFLICT (subject_id, reminder_type, day) DO UPDATE
SET state = 'sent',
    sent_at = EXCLUDED.sent_at,
    target = EXCLUDED.target,
    message_id = EXCLUDED.message_id,
    expires_at = NULL
`, entry.Key.SubjectID, entry.Key.Type.String(), entry.Key.Day, sentAt, entry.Target, entry.MessageID)
	return err
}

func (r *postgresLedger) Release(ctx context.Context, res domain.Reservation) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM notification_log
WHERE subject_id = $1 AND reminder_type = $2 AND day = $3
  AND state = 'pending' AND reservation_id = $4
`, res.Key.SubjectID, res.Key.Type.String(), res.Key.Day, res.ID)
	return err
}
