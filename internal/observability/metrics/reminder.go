package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	reminderMeterName = "reminder.service"
)

type ReminderMetrics struct {
	candidates          metric.Int64Counter
	dispatches          metric.Int64Counter
	ledgerWriteFailures metric.Int64Counter
	jobDuration         metric.Float64Histogram
	habitScores         metric.Int64Counter
}

func NewReminderMetrics() (*ReminderMetrics, error) {
	meter := otel.Meter(reminderMeterName)

	candidates, err := meter.Int64Counter(
		"reminder_candidates_total",
		metric.WithDescription("Total number of reminder candidates evaluated"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter(
		"reminder_dispatch_total",
		metric.WithDescription("Total number of notification dispatch attempts"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	ledgerWriteFailures, err := meter.Int64Counter(
		"reminder_ledger_write_failures_total",
		metric.WithDescription("Notifications dispatched whose ledger entry could not be written"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram(
		"reminder_job_duration_seconds",
		metric.WithDescription("Job invocation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
		),
	)
	if err != nil {
		return nil, err
	}

	habitScores, err := meter.Int64Counter(
		"reminder_habit_score_total",
		metric.WithDescription("Habit confidence labels produced by the scorer"),
		metric.WithUnit("{score}"),
	)
	if err != nil {
		return nil, err
	}

	return &ReminderMetrics{
		candidates:          candidates,
		dispatches:          dispatches,
		ledgerWriteFailures: ledgerWriteFailures,
		jobDuration:         jobDuration,
		habitScores:         habitScores,
	}, nil
}

func (m *ReminderMetrics) RecordCandidate(ctx context.Context, job, outcome string) {
	m.candidates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("outcome", outcome),
	))
}

func (m *ReminderMetrics) RecordDispatch(ctx context.Context, job, status string) {
	m.dispatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("status", status),
	))
}

func (m *ReminderMetrics) RecordLedgerWriteFailure(ctx context.Context, job string) {
	m.ledgerWriteFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
	))
}

func (m *ReminderMetrics) RecordJobDuration(ctx context.Context, job string, duration time.Duration) {
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("job", job),
	))
}

func (m *ReminderMetrics) RecordHabitScore(ctx context.Context, label string) {
	m.habitScores.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", label),
	))
}
