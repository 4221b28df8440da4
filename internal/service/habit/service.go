package habit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/candidate"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/clock"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/confidence"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/job"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/ledger"
)

const JobName = "habit"

const (
	skipLowConfidence = "low_confidence"
	skipOutsideWindow = "outside_window"
)

const (
	defaultWorkers            = 8
	defaultCandidateTimeout   = 10 * time.Second
	defaultEnumerationTimeout = time.Minute
)

type Config struct {
	Window           clock.Window
	Workers          int
	CandidateTimeout time.Duration
	// EnumerationTimeout bounds the paged candidate read before any work starts.
	EnumerationTimeout time.Duration
}

type Service struct {
	clock      clock.Clock
	selector   *candidate.Selector
	scorer     *confidence.Scorer
	guard      *ledger.Guard
	dispatcher domain.Dispatcher
	reporter   job.Reporter
	cfg        Config
}

func NewService(
	clk clock.Clock,
	selector *candidate.Selector,
	scorer *confidence.Scorer,
	guard *ledger.Guard,
	dispatcher domain.Dispatcher,
	reporter job.Reporter,
	cfg Config,
) *Service {
	if cfg.Window == (clock.Window{}) {
		cfg.Window = clock.DefaultWindow
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
		selector:   selector,
		scorer:     scorer,
		guard:      guard,
		dispatcher: dispatcher,
		reporter:   reporter,
		cfg:        cfg,
	}
}

func (s *Service) Run(ctx context.Context) (*job.Response, error) {
	return s.RunAt(ctx, s.clock.Now())
}

// RunAt evaluates habit reminders as of now. At most one habit reminder per
// user and local day goes out, enforced by the day-scoped ledger key.
func (s *Service) RunAt(ctx context.Context, now time.Time) (*job.Response, error) {
	runID := job.RunIDFromContext(ctx)
	startedAt := time.Now()

	ctx, span := tracing.StartJobSpan(ctx, JobName, runID, now)
	defer span.End()

	collector := job.NewCollector(JobName, runID, now)

	enumCtx, cancelEnum := context.WithTimeout(ctx, s.cfg.EnumerationTimeout)
	profiles, err := s.selector.HabitProfiles(enumCtx)
	cancelEnum()
	if err != nil {
		resp := collector.Response()
		s.reporter.Finish(ctx, span, resp, startedAt, err)
		return resp, fmt.Errorf("enumerate habit candidates: %w", err)
	}

	started := job.ForEach(ctx, s.cfg.Workers, profiles, func(ctx context.Context, profile domain.UserProfile) {
		item := s.processProfile(ctx, now, profile)
		s.reporter.Candidate(ctx, JobName, item)
		collector.Add(item)
	})
	for _, profile := range profiles[started:] {
		collector.Add(job.Skipped(job.ResultItem{SubjectID: profile.ID, UserID: profile.ID}, job.SkipRunCancelled))
	}

	resp := collector.Response()
	s.reporter.Finish(ctx, span, resp, startedAt, nil)
	return resp, nil
}

func (s *Service) processProfile(ctx context.Context, now time.Time, profile domain.UserProfile) job.ResultItem {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CandidateTimeout)
	defer cancel()

	ctx, span := tracing.StartCandidateSpan(ctx, JobName, profile.ID)
	defer span.End()

	item := s.evaluate(ctx, now, profile)
	tracing.RecordCandidateOutcome(span, string(item.Outcome), item.SkipReason, item.Error)
	return item
}

func (s *Service) evaluate(ctx context.Context, now time.Time, profile domain.UserProfile) job.ResultItem {
	item := job.ResultItem{
		SubjectID: profile.ID,
		UserID:    profile.ID,
	}

	cand, reason, err := s.selector.QualifyHabit(ctx, profile, now)
	if err != nil {
		slog.WarnContext(ctx, "failed to qualify habit candidate",
			slog.String("user_id", profile.ID),
			slog.String("error", err.Error()),
		)
		return job.Failed(item, err)
	}
	if reason != candidate.SkipNone {
		slog.DebugContext(ctx, "skipping habit candidate",
			slog.String("user_id", profile.ID),
			slog.String("reason", string(reason)),
		)
		return job.Skipped(item, string(reason))
	}
	item.LedgerKey = cand.Key.String()

	score := s.scorer.Score(confidence.SamplesFromEvents(cand.Events))
	if s.reporter.Metrics != nil {
		s.reporter.Metrics.RecordHabitScore(ctx, score.Confidence.String())
	}
	item.Target = score.Time

	slog.DebugContext(ctx, "scored habit",
		slog.String("user_id", profile.ID),
		slog.String("time", score.Time),
		slog.String("confidence", score.Confidence.String()),
		slog.Float64("score", score.Score),
		slog.Int("samples", score.Samples),
	)

	if !score.Confidence.IsHigh() {
		return job.Skipped(item, skipLowConfidence)
	}

	within, err := clock.IsWithinMinutesBefore(now, score.Time, cand.Location, s.cfg.Window)
	if err != nil {
		return job.Failed(item, err)
	}
	if !within {
		return job.Skipped(item, skipOutsideWindow)
	}

	notification := domain.NewHabitReminder(profile, cand.Key, score.Time)
	delivery, err := s.guard.Deliver(ctx, cand.Key, score.Time, func(ctx context.Context) (string, error) {
		return s.dispatcher.Send(ctx, notification)
	})

	return s.reporter.Settle(ctx, JobName, item, delivery, err)
}
