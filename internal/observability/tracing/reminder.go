package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const reminderTracerName = "github.com/KasumiMercury/primind-scan-reminder/internal/service"

func ReminderTracer() trace.Tracer {
	return otel.Tracer(reminderTracerName)
}

func StartJobSpan(ctx context.Context, job, runID string, now time.Time) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.job."+job,
		trace.WithAttributes(
			attribute.String("job.name", job),
			attribute.String("job.run_id", runID),
			attribute.String("job.now", now.Format(time.RFC3339)),
		),
	)
}

func StartCandidateSpan(ctx context.Context, job, subjectID string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.candidate",
		trace.WithAttributes(
			attribute.String("job.name", job),
			attribute.String("candidate.subject_id", subjectID),
		),
	)
}

func StartDeliverySpan(ctx context.Context, ledgerKey string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.deliver",
		trace.WithAttributes(
			attribute.String("ledger.key", ledgerKey),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func StartStoreSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.postgres."+operation,
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordJobResult(span trace.Span, processedCount, sentCount, skippedCount, failedCount int, err error) {
	span.SetAttributes(
		attribute.Int("job.processed_count", processedCount),
		attribute.Int("job.sent_count", sentCount),
		attribute.Int("job.skipped_count", skippedCount),
		attribute.Int("job.failed_count", failedCount),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

func RecordCandidateOutcome(span trace.Span, outcome, skipReason, errMsg string) {
	span.SetAttributes(attribute.String("candidate.outcome", outcome))
	if skipReason != "" {
		span.SetAttributes(attribute.String("candidate.skip_reason", skipReason))
	}
	if errMsg != "" {
		span.SetStatus(codes.Error, errMsg)
	}
}

func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
