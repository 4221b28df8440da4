package candidate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/clock"
)

const (
	DefaultDueDateLeadDays = 3
	DefaultHistoryDays     = 14
	DefaultMinSamples      = 7
	DefaultPageSize        = 200
)

type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipAlreadySent         SkipReason = "already_sent"
	SkipActiveToday         SkipReason = "active_today"
	SkipInsufficientSamples SkipReason = "insufficient_samples"
)

// SentChecker answers whether a ledger key is already claimed.
type SentChecker interface {
	HasSent(ctx context.Context, key domain.LedgerKey) (bool, error)
}

type Config struct {
	DueDateLeadDays int
	HistoryDays     int
	MinSamples      int
	PageSize        int
	// DefaultLocation applies to profiles without a timezone.
	DefaultLocation *time.Location
}

func (c Config) withDefaults() Config {
	if c.DueDateLeadDays <= 0 {
		c.DueDateLeadDays = DefaultDueDateLeadDays
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = DefaultHistoryDays
	}
	if c.MinSamples <= 0 {
		c.MinSamples = DefaultMinSamples
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.DefaultLocation == nil {
		c.DefaultLocation = time.UTC
	}
	return c
}

// HabitCandidate is a profile that passed the habit pre-filters, with what
// the scorer needs already loaded.
type HabitCandidate struct {
	Profile  domain.UserProfile
	Location *time.Location
	Key      domain.LedgerKey
	Events   []domain.ScanEvent
}

type Selector struct {
	store  domain.RecordStore
	ledger SentChecker
	cfg    Config
}

func NewSelector(store domain.RecordStore, ledger SentChecker, cfg Config) *Selector {
	return &Selector{
		store:  store,
		ledger: ledger,
		cfg:    cfg.withDefaults(),
	}
}

func (s *Selector) Config() Config {
	return s.cfg
}

// DueDateCandidates returns every HIGH confidence record due roughly
// DueDateLeadDays from now. The exact calendar-day check is left to the job.
func (s *Selector) DueDateCandidates(ctx context.Context, now time.Time) ([]domain.ActionableRecord, error) {
	filter := domain.RecordFilter{
		Confidence: domain.ConfidenceHigh,
		DueFrom:    now.AddDate(0, 0, s.cfg.DueDateLeadDays-2),
		DueTo:      now.AddDate(0, 0, s.cfg.DueDateLeadDays+2),
		Limit:      s.cfg.PageSize,
	}

	var records []domain.ActionableRecord
	for {
		page, err := s.store.ListActionableRecords(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list due date candidates: %w", err)
		}
		records = append(records, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.AfterID = page[len(page)-1].ID
	}

	slog.DebugContext(ctx, "fetched due date candidates",
		slog.Int("count", len(records)),
		slog.Time("due_from", filter.DueFrom),
		slog.Time("due_to", filter.DueTo),
	)

	return records, nil
}

// HabitProfiles returns every profile with notifications enabled and a token.
func (s *Selector) HabitProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	filter := domain.ProfileFilter{Limit: s.cfg.PageSize}

	var profiles []domain.UserProfile
	for {
		page, err := s.store.ListNotifiableProfiles(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list habit candidates: %w", err)
		}
		for _, p := range page {
			if p.CanReceive() {
				profiles = append(profiles, p)
			}
		}
		if len(page) < filter.Limit {
			break
		}
		filter.AfterID = page[len(page)-1].ID
	}

	slog.DebugContext(ctx, "fetched habit candidates",
		slog.Int("count", len(profiles)),
	)

	return profiles, nil
}

// QualifyHabit applies the per-user habit filters in order: no habit
// reminder yet today, no scan yet today, enough history to score.
func (s *Selector) QualifyHabit(ctx context.Context, profile domain.UserProfile, now time.Time) (*HabitCandidate, SkipReason, error) {
	loc, err := profile.Location(s.cfg.DefaultLocation)
	if err != nil {
		return nil, SkipNone, err
	}

	key := domain.HabitKey(profile.ID, now.In(loc))

	sent, err := s.ledger.HasSent(ctx, key)
	if err != nil {
		return nil, SkipNone, err
	}
	if sent {
		return nil, SkipAlreadySent, nil
	}

	since := now.AddDate(0, 0, -s.cfg.HistoryDays)
	events, err := s.store.ListScanEvents(ctx, profile.ID, since)
	if err != nil {
		return nil, SkipNone, err
	}

	for _, e := range events {
		if clock.SameDay(e.CreatedAt, now, loc) {
			return nil, SkipActiveToday, nil
		}
	}

	if len(events) < s.cfg.MinSamples {
		return nil, SkipInsufficientSamples, nil
	}

	return &HabitCandidate{
		Profile:  profile,
		Location: loc,
		Key:      key,
		Events:   events,
	}, SkipNone, nil
}
