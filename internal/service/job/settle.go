package job

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/ledger"
)

const SkipAlreadySent = "already_sent"

const (
	dispatchStatusSent         = "sent"
	dispatchStatusTransient    = "transient"
	dispatchStatusInvalidToken = "invalid_token"
)

// Settle turns the result of ledger.Guard.Deliver into a ResultItem.
// A send whose ledger write failed still counts as sent.
func (r Reporter) Settle(ctx context.Context, job string, item ResultItem, delivery ledger.Delivery, err error) ResultItem {
	switch {
	case err != nil && ledger.IsLedgerWriteError(err):
		r.Dispatch(ctx, job, dispatchStatusSent)
		item.Outcome = OutcomeSent
		item.MessageID = delivery.MessageID
		item.LedgerWriteFailed = true
		item.Error = err.Error()
		return item
	case err != nil && delivery.Outcome == ledger.OutcomeFailed:
		status := dispatchStatusTransient
		if domain.IsPermanentDispatchError(err) {
			status = dispatchStatusInvalidToken
		}
		r.Dispatch(ctx, job, status)
		slog.WarnContext(ctx, "failed to dispatch reminder",
			slog.String("job", job),
			slog.String("ledger_key", item.LedgerKey),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
		return Failed(item, err)
	case err != nil:
		slog.WarnContext(ctx, "failed to reserve ledger key",
			slog.String("job", job),
			slog.String("ledger_key", item.LedgerKey),
			slog.String("error", err.Error()),
		)
		return Failed(item, err)
	case delivery.Outcome == ledger.OutcomeClaimed:
		return Skipped(item, SkipAlreadySent)
	}

	r.Dispatch(ctx, job, dispatchStatusSent)
	slog.InfoContext(ctx, "reminder sent",
		slog.String("job", job),
		slog.String("ledger_key", item.LedgerKey),
		slog.String("user_id", item.UserID),
		slog.String("target", item.Target),
		slog.String("message_id", delivery.MessageID),
	)
	item.Outcome = OutcomeSent
	item.MessageID = delivery.MessageID
	return item
}
