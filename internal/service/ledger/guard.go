package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/tracing"
)

const (
	DefaultPendingTTL      = 15 * time.Minute
	DefaultDispatchTimeout = 10 * time.Second

	recordSentMaxRetries  = 3
	recordSentBaseBackoff = 100 * time.Millisecond
)

// MinPendingTTL is the shortest reservation lifetime that still covers one
// dispatch plus every RecordSent attempt and the backoff between them. A
// shorter reservation can expire while its send is still unrecorded.
func MinPendingTTL(dispatchTimeout time.Duration) time.Duration {
	total := dispatchTimeout * (1 + recordSentMaxRetries)
	for attempt := 1; attempt < recordSentMaxRetries; attempt++ {
		total += recordSentBackoff(attempt)
	}
	return total
}

func recordSentBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * recordSentBaseBackoff
}

type Outcome string

const (
	// OutcomeSent means the dispatch succeeded. The ledger entry may still be
	// missing if Deliver also returned ErrLedgerWrite.
	OutcomeSent Outcome = "sent"
	// OutcomeClaimed means the key was already recorded or reserved by
	// another run; nothing was dispatched.
	OutcomeClaimed Outcome = "claimed"
	// OutcomeFailed means the dispatch failed and the reservation was released.
	OutcomeFailed Outcome = "failed"
)

type Delivery struct {
	Outcome   Outcome
	MessageID string
}

// DispatchFunc performs the side effect guarded by a reservation.
type DispatchFunc func(ctx context.Context) (string, error)

// Guard runs the at-most-once protocol over a NotificationLedger:
// reserve the key, dispatch, then record or release.
type Guard struct {
	ledger          domain.NotificationLedger
	pendingTTL      time.Duration
	dispatchTimeout time.Duration
	newID           func() string
}

func NewGuard(ledger domain.NotificationLedger, pendingTTL, dispatchTimeout time.Duration) *Guard {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	if dispatchTimeout <= 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}
	if floor := MinPendingTTL(dispatchTimeout); pendingTTL <= floor {
		slog.Warn("ledger pending TTL raised to cover dispatch and ledger write retries",
			slog.Duration("configured", pendingTTL),
			slog.Duration("pending_ttl", floor+time.Second),
			slog.Duration("dispatch_timeout", dispatchTimeout),
		)
		pendingTTL = floor + time.Second
	}
	return &Guard{
		ledger:          ledger,
		pendingTTL:      pendingTTL,
		dispatchTimeout: dispatchTimeout,
		newID:           uuid.NewString,
	}
}

// HasSent is a cheap pre-check; Deliver is still authoritative.
func (g *Guard) HasSent(ctx context.Context, key domain.LedgerKey) (bool, error) {
	sent, err := g.ledger.HasSent(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check ledger %s: %w", key, err)
	}
	return sent, nil
}

// Deliver dispatches at most once per key. Once the reservation is taken,
// dispatch and the ledger write run detached from ctx cancellation so a
// cancelled run cannot leave a sent notification unrecorded.
func (g *Guard) Deliver(ctx context.Context, key domain.LedgerKey, target string, dispatch DispatchFunc) (Delivery, error) {
	ctx, span := tracing.StartDeliverySpan(ctx, key.String())
	defer span.End()

	res := domain.Reservation{
		Key:        key,
		ID:         g.newID(),
		ReservedAt: time.Now().UTC(),
	}

	acquired, err := g.ledger.Reserve(ctx, res, g.pendingTTL)
	if err != nil {
		tracing.RecordError(span, err)
		return Delivery{}, fmt.Errorf("reserve %s: %w", key, err)
	}
	if !acquired {
		slog.DebugContext(ctx, "ledger key already claimed",
			slog.String("ledger_key", key.String()),
		)
		return Delivery{Outcome: OutcomeClaimed}, nil
	}

	detached := context.WithoutCancel(ctx)

	dispatchCtx, cancel := context.WithTimeout(detached, g.dispatchTimeout)
	messageID, err := dispatch(dispatchCtx)
	cancel()
	if err != nil {
		tracing.RecordError(span, err)
		g.release(detached, res)
		return Delivery{Outcome: OutcomeFailed}, err
	}

	entry := domain.NewNotificationLogEntry(key, target, messageID)
	if err := g.recordWithRetry(detached, entry); err != nil {
		slog.ErrorContext(ctx, "notification sent but ledger write failed, duplicate send possible",
			slog.String("event", "ledger.write.fail"),
			slog.String("severity_hint", "critical"),
			slog.String("ledger_key", key.String()),
			slog.String("message_id", messageID),
			slog.String("error", err.Error()),
		)
		tracing.RecordError(span, err)
		return Delivery{Outcome: OutcomeSent, MessageID: messageID}, fmt.Errorf("%w: %s: %w", domain.ErrLedgerWrite, key, err)
	}

	return Delivery{Outcome: OutcomeSent, MessageID: messageID}, nil
}

func (g *Guard) release(ctx context.Context, res domain.Reservation) {
	releaseCtx, cancel := context.WithTimeout(ctx, g.dispatchTimeout)
	defer cancel()

	if err := g.ledger.Release(releaseCtx, res); err != nil {
		slog.WarnContext(ctx, "failed to release ledger reservation, it will expire",
			slog.String("ledger_key", res.Key.String()),
			slog.Duration("pending_ttl", g.pendingTTL),
			slog.String("error", err.Error()),
		)
	}
}

func (g *Guard) recordWithRetry(ctx context.Context, entry *domain.NotificationLogEntry) error {
	var lastErr error
	for attempt := 0; attempt < recordSentMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := recordSentBackoff(attempt)
			slog.DebugContext(ctx, "retrying ledger write",
				slog.String("ledger_key", entry.Key.String()),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
		}

		writeCtx, cancel := context.WithTimeout(ctx, g.dispatchTimeout)
		err := g.ledger.RecordSent(writeCtx, entry)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to record sent notification after %d retries: %w", recordSentMaxRetries, lastErr)
}

// IsLedgerWriteError reports whether err means a send went unrecorded.
func IsLedgerWriteError(err error) bool {
	return errors.Is(err, domain.ErrLedgerWrite)
}
