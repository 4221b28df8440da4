package runrecorder

import (
	"context"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.JobRunRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordRun(_ context.Context, _ domain.JobRunRecord) error {
	return nil
}

func (n *noopRecorder) Flush(_ context.Context) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
