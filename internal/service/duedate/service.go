package duedate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/candidate"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/clock"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/job"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/ledger"
)

const JobName = "due_date"

const (
	skipNotEligible   = "not_eligible"
	skipOutsideLead   = "outside_lead_window"
	skipNoProfile     = "profile_not_found"
	skipNotNotifiable = "not_notifiable"
)

const (
	defaultWorkers            = 8
	defaultCandidateTimeout   = 10 * time.Second
	defaultEnumerationTimeout = time.Minute
)

type Config struct {
	LeadDays int
	// ReferenceLocation is the timezone calendar days are counted in.
	ReferenceLocation *time.Location
	Workers           int
	CandidateTimeout  time.Duration
	// EnumerationTimeout bounds the paged candidate read before any work starts.
	EnumerationTimeout time.Duration
}

type Service struct {
	clock      clock.Clock
	store      domain.RecordStore
	selector   *candidate.Selector
	guard      *ledger.Guard
	dispatcher domain.Dispatcher
	reporter   job.Reporter
	cfg        Config
}

func NewService(
	clk clock.Clock,
	store domain.RecordStore,
	selector *candidate.Selector,
	guard *ledger.Guard,
	dispatcher domain.Dispatcher,
	reporter job.Reporter,
	cfg Config,
) *Service {
	if cfg.LeadDays <= 0 {
		cfg.LeadDays = candidate.DefaultDueDateLeadDays
	}
	if cfg.ReferenceLocation == nil {
		cfg.ReferenceLocation = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.CandidateTimeout <= 0 {
		cfg.CandidateTimeout = defaultCandidateTimeout
	}
	if cfg.EnumerationTimeout <= 0 {
		cfg.EnumerationTimeout = defaultEnumerationTimeout
	}
	return &Service{
		clock:      clk,
		store:      store,
		selector:   selector,
		guard:      guard,
		dispatcher: dispatcher,
		reporter:   reporter,
		cfg:        cfg,
	}
}

// Run evaluates due-date reminders as of the current clock time.
func (s *Service) Run(ctx context.Context) (*job.Response, error) {
	return s.RunAt(ctx, s.clock.Now())
}

// RunAt evaluates due-date reminders as of now. Only a failure to enumerate
// candidates is returned as an error; per-record failures are counted.
func (s *Service) RunAt(ctx context.Context, now time.Time) (*job.Response, error) {
	runID := job.RunIDFromContext(ctx)
	startedAt := time.Now()

	ctx, span := tracing.StartJobSpan(ctx, JobName, runID, now)
	defer span.End()

	collector := job.NewCollector(JobName, runID, now)

	enumCtx, cancelEnum := context.WithTimeout(ctx, s.cfg.EnumerationTimeout)
	records, err := s.selector.DueDateCandidates(enumCtx, now)
	cancelEnum()
	if err != nil {
		resp := collector.Response()
		s.reporter.Finish(ctx, span, resp, startedAt, err)
		return resp, fmt.Errorf("enumerate due date candidates: %w", err)
	}

	started := job.ForEach(ctx, s.cfg.Workers, records, func(ctx context.Context, record domain.ActionableRecord) {
		item := s.processRecord(ctx, now, record)
		s.reporter.Candidate(ctx, JobName, item)
		collector.Add(item)
	})
	for _, record := range records[started:] {
		collector.Add(job.Skipped(job.ResultItem{SubjectID: record.ID, UserID: record.UserID}, job.SkipRunCancelled))
	}

	resp := collector.Response()
	s.reporter.Finish(ctx, span, resp, startedAt, nil)
	return resp, nil
}

func (s *Service) processRecord(ctx context.Context, now time.Time, record domain.ActionableRecord) job.ResultItem {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CandidateTimeout)
	defer cancel()

	ctx, span := tracing.StartCandidateSpan(ctx, JobName, record.ID)
	defer span.End()

	key := domain.DueDateKey(record.ID)
	item := job.ResultItem{
		SubjectID: record.ID,
		UserID:    record.UserID,
		LedgerKey: key.String(),
		Target:    record.DueAt.In(s.cfg.ReferenceLocation).Format(domain.DayLayout),
	}

	item = s.evaluate(ctx, now, record, key, item)
	tracing.RecordCandidateOutcome(span, string(item.Outcome), item.SkipReason, item.Error)
	return item
}

func (s *Service) evaluate(ctx context.Context, now time.Time, record domain.ActionableRecord, key domain.LedgerKey, item job.ResultItem) job.ResultItem {
	if !record.EligibleForDueDateReminder() {
		return job.Skipped(item, skipNotEligible)
	}

	if !clock.DaysBetween(now, record.DueAt, s.cfg.LeadDays, s.cfg.ReferenceLocation) {
		return job.Skipped(item, skipOutsideLead)
	}

	sent, err := s.guard.HasSent(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "failed to check ledger",
			slog.String("record_id", record.ID),
			slog.String("error", err.Error()),
		)
		return job.Failed(item, err)
	}
	if sent {
		slog.DebugContext(ctx, "skipping already reminded record",
			slog.String("record_id", record.ID),
		)
		return job.Skipped(item, job.SkipAlreadySent)
	}

	profile, err := s.store.GetUserProfile(ctx, record.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return job.Skipped(item, skipNoProfile)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to read user profile",
			slog.String("record_id", record.ID),
			slog.String("user_id", record.UserID),
			slog.String("error", err.Error()),
		)
		return job.Failed(item, err)
	}
	if !profile.CanReceive() {
		slog.DebugContext(ctx, "skipping record of unreachable user",
			slog.String("record_id", record.ID),
			slog.String("user_id", record.UserID),
		)
		return job.Skipped(item, skipNotNotifiable)
	}

	notification := domain.NewDueDateReminder(*profile, record)
	delivery, err := s.guard.Deliver(ctx, key, item.Target, func(ctx context.Context) (string, error) {
		return s.dispatcher.Send(ctx, notification)
	})

	return s.reporter.Settle(ctx, JobName, item, delivery, err)
}
