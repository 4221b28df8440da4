//go:build !gcloud

package runrecorder

import (
	"context"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

const measurement = "reminder_job_run"

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewRecorder(ctx context.Context, cfg Config) (domain.JobRunRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "job run recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, job run recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)

	slog.InfoContext(ctx, "job run recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket),
	}, nil
}

func runPoint(record domain.JobRunRecord) *write.Point {
	runID := record.RunID
	if runID == "" {
		runID = "default"
	}

	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"run_id": runID,
			"job":    record.Job,
		},
		map[string]any{
			"processed_count": record.ProcessedCount,
			"sent_count":      record.SentCount,
			"skipped_count":   record.SkippedCount,
			"failed_count":    record.FailedCount,
			"duration_ms":     record.Duration.Milliseconds(),
			"fatal":           record.Fatal,
		},
		record.StartedAt,
	)
}

// RecordRun never fails the run; write errors are logged.
func (r *influxDBRecorder) RecordRun(ctx context.Context, record domain.JobRunRecord) error {
	if err := r.writeAPI.WritePoint(ctx, runPoint(record)); err != nil {
		slog.WarnContext(ctx, "failed to write job run to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("job", record.Job),
			slog.String("run_id", record.RunID),
		)
	}
	return nil
}

func (r *influxDBRecorder) Flush(_ context.Context) error {
	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
