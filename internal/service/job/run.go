package job

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/tracing"
)

type runIDKey struct{}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}

// Reporter publishes per-candidate and per-run outcomes. Both fields are
// optional.
type Reporter struct {
	Metrics  *metrics.ReminderMetrics
	Recorder domain.JobRunRecorder
}

func (r Reporter) Candidate(ctx context.Context, job string, item ResultItem) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.RecordCandidate(ctx, job, string(item.Outcome))
	if item.LedgerWriteFailed {
		r.Metrics.RecordLedgerWriteFailure(ctx, job)
	}
}

func (r Reporter) Dispatch(ctx context.Context, job, status string) {
	if r.Metrics != nil {
		r.Metrics.RecordDispatch(ctx, job, status)
	}
}

// Finish closes out a run: span attributes, duration metric, the recorded
// summary and the summary log line.
func (r Reporter) Finish(ctx context.Context, span trace.Span, resp *Response, startedAt time.Time, runErr error) {
	duration := time.Since(startedAt)

	tracing.RecordJobResult(span, resp.ProcessedCount, resp.SentCount, resp.SkippedCount, resp.FailedCount, runErr)

	if r.Metrics != nil {
		r.Metrics.RecordJobDuration(ctx, resp.Job, duration)
	}

	if r.Recorder != nil {
		record := domain.JobRunRecord{
			RunID:          resp.RunID,
			Job:            resp.Job,
			StartedAt:      startedAt,
			Duration:       duration,
			ProcessedCount: resp.ProcessedCount,
			SentCount:      resp.SentCount,
			SkippedCount:   resp.SkippedCount,
			FailedCount:    resp.FailedCount,
			Fatal:          runErr != nil,
		}
		if err := r.Recorder.RecordRun(ctx, record); err != nil {
			slog.WarnContext(ctx, "failed to record job run",
				slog.String("run_id", resp.RunID),
				slog.String("error", err.Error()),
			)
		}
	}

	attrs := []any{
		slog.String("job", resp.Job),
		slog.String("run_id", resp.RunID),
		slog.Time("now", resp.Now),
		slog.Int("processed_count", resp.ProcessedCount),
		slog.Int("sent_count", resp.SentCount),
		slog.Int("skipped_count", resp.SkippedCount),
		slog.Int("failed_count", resp.FailedCount),
		slog.Int("ledger_write_failures", resp.LedgerWriteFailures),
		slog.Duration("duration", duration),
	}
	if runErr != nil {
		attrs = append(attrs, slog.String("error", runErr.Error()))
		slog.ErrorContext(ctx, "job run aborted", attrs...)
		return
	}
	slog.InfoContext(ctx, "job run completed", attrs...)
}
