//go:build gcloud

package runrecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt     time.Time `bigquery:"recorded_at"`
	RunID          string    `bigquery:"run_id"`
	Job            string    `bigquery:"job"`
	StartedAt      time.Time `bigquery:"started_at"`
	DurationMillis int64     `bigquery:"duration_ms"`
	ProcessedCount int64     `bigquery:"processed_count"`
	SentCount      int64     `bigquery:"sent_count"`
	SkippedCount   int64     `bigquery:"skipped_count"`
	FailedCount    int64     `bigquery:"failed_count"`
	Fatal          bool      `bigquery:"fatal"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg Config) (domain.JobRunRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "job run recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, job run recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, job run recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	slog.InfoContext(ctx, "job run recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter(),
	}, nil
}

func (r *bigQueryRecorder) RecordRun(ctx context.Context, record domain.JobRunRecord) error {
	row := &bigQueryRecord{
		RecordedAt:     time.Now(),
		RunID:          record.RunID,
		Job:            record.Job,
		StartedAt:      record.StartedAt,
		DurationMillis: record.Duration.Milliseconds(),
		ProcessedCount: int64(record.ProcessedCount),
		SentCount:      int64(record.SentCount),
		SkippedCount:   int64(record.SkippedCount),
		FailedCount:    int64(record.FailedCount),
		Fatal:          record.Fatal,
	}

	if err := r.inserter.Put(ctx, row); err != nil {
		slog.WarnContext(ctx, "failed to insert job run to BigQuery",
			slog.String("error", err.Error()),
			slog.String("job", record.Job),
			slog.String("run_id", record.RunID),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Flush(_ context.Context) error {
	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
