package domain

import (
	"context"
	"time"
)

type JobRunRecord struct {
	RunID          string
	Job            string
	StartedAt      time.Time
	Duration       time.Duration
	ProcessedCount int
	SentCount      int
	SkippedCount   int
	FailedCount    int
	Fatal          bool
}

type JobRunRecorder interface {
	RecordRun(ctx context.Context, record JobRunRecord) error
	Flush(ctx context.Context) error
	Close() error
}
