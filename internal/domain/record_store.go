package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=record_store.go -destination=record_store_mock.go -package=domain

// RecordFilter narrows an actionable record query. Zero values mean no bound.
type RecordFilter struct {
	Confidence Confidence
	DueFrom    time.Time
	DueTo      time.Time
	AfterID    string
	Limit      int
}

// ProfileFilter narrows a profile query to users that can receive pushes.
type ProfileFilter struct {
	AfterID string
	Limit   int
}

type RecordStore interface {
	ListActionableRecords(ctx context.Context, filter RecordFilter) ([]ActionableRecord, error)
	ListNotifiableProfiles(ctx context.Context, filter ProfileFilter) ([]UserProfile, error)
	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)
	ListScanEvents(ctx context.Context, userID string, since time.Time) ([]ScanEvent, error)
}
