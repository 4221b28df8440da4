package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/tracing"
)

const defaultPageSize = 200

type recordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) domain.RecordStore {
	return &recordStore{
		pool: pool,
	}
}

func pageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return limit
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrRecordStoreUnavailable, err)
}

func (s *recordStore) ListActionableRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.ActionableRecord, error) {
	ctx, span := tracing.StartStoreSpan(ctx, "ListActionableRecords", "actionable_records")
	defer span.End()

	var (
		confidence *string
		dueFrom    *time.Time
		dueTo      *time.Time
	)
	if filter.Confidence != "" {
		c := filter.Confidence.String()
		confidence = &c
	}
	if !filter.DueFrom.IsZero() {
		t := filter.DueFrom.UTC()
		dueFrom = &t
	}
	if !filter.DueTo.IsZero() {
		t := filter.DueTo.UTC()
		dueTo = &t
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, due_at, confidence, description
FROM actionable_records
WHERE ($1::text IS NULL OR confidence = $1)
  AND ($2::timestamptz IS NULL OR due_at >= $2)
  AND ($3::timestamptz IS NULL OR due_at < $3)
  AND id > $4
ORDER BY id
LIMIT $5`, confidence, dueFrom, dueTo, filter.AfterID, pageSize(filter.Limit))
	if err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("list actionable records", err)
	}
	defer rows.Close()

	var records []domain.ActionableRecord
	for rows.Next() {
		var (
			rec   domain.ActionableRecord
			dueAt *time.Time
			conf  string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &dueAt, &conf, &rec.Description); err != nil {
			tracing.RecordError(span, err)
			return nil, unavailable("scan actionable record", err)
		}
		if dueAt != nil {
			rec.DueAt = dueAt.UTC()
		}
		rec.Confidence = domain.Confidence(conf)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("iterate actionable records", err)
	}

	return records, nil
}

func (s *recordStore) ListNotifiableProfiles(ctx context.Context, filter domain.ProfileFilter) ([]domain.UserProfile, error) {
	ctx, span := tracing.StartStoreSpan(ctx, "ListNotifiableProfiles", "user_profiles")
	defer span.End()

	rows, err := s.pool.Query(ctx, `
SELECT id, COALESCE(delivery_token, ''), notifications_enabled, COALESCE(timezone, '')
FROM user_profiles
WHERE notifications_enabled
  AND delivery_token IS NOT NULL AND delivery_token <> ''
  AND id > $1
ORDER BY id
LIMIT $2`, filter.AfterID, pageSize(filter.Limit))
	if err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("list notifiable profiles", err)
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(&p.ID, &p.DeliveryToken, &p.NotificationsEnabled, &p.Timezone); err != nil {
			tracing.RecordError(span, err)
			return nil, unavailable("scan user profile", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("iterate user profiles", err)
	}

	return profiles, nil
}

func (s *recordStore) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := tracing.StartStoreSpan(ctx, "GetUserProfile", "user_profiles")
	defer span.End()

	var p domain.UserProfile
	err := s.pool.QueryRow(ctx, `
SELECT id, COALESCE(delivery_token, ''), notifications_enabled, COALESCE(timezone, '')
FROM user_profiles
WHERE id = $1`, userID).Scan(&p.ID, &p.DeliveryToken, &p.NotificationsEnabled, &p.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("get user profile", err)
	}

	return &p, nil
}

func (s *recordStore) ListScanEvents(ctx context.Context, userID string, since time.Time) ([]domain.ScanEvent, error) {
	ctx, span := tracing.StartStoreSpan(ctx, "ListScanEvents", "scan_events")
	defer span.End()

	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, hour, minute, created_at
FROM scan_events
WHERE user_id = $1 AND created_at >= $2
ORDER BY created_at`, userID, since.UTC())
	if err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("list scan events", err)
	}
	defer rows.Close()

	var events []domain.ScanEvent
	for rows.Next() {
		var (
			e            domain.ScanEvent
			hour, minute int16
		)
		if err := rows.Scan(&e.ID, &e.UserID, &hour, &minute, &e.CreatedAt); err != nil {
			tracing.RecordError(span, err)
			return nil, unavailable("scan scan event", err)
		}
		e.Hour = int(hour)
		e.Minute = int(minute)
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		tracing.RecordError(span, err)
		return nil, unavailable("iterate scan events", err)
	}

	return events, nil
}
