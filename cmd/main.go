package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-scan-reminder/internal/config"
	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/handler"
	"github.com/KasumiMercury/primind-scan-reminder/internal/health"
	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/repository"
	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/runrecorder"
	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/store"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/middleware"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/candidate"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/clock"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/confidence"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/duedate"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/habit"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/job"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/ledger"
)

// Version is set via ldflags at build time
var Version = "dev"

const module = logging.Module("scan-reminder")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs, err := initObservability(ctx)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	// Both already validated by Load.
	defaultLoc, _ := cfg.Reminder.DefaultLocation()
	referenceLoc, _ := cfg.Reminder.ReferenceLocation()

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	reminderMetrics, err := metrics.NewReminderMetrics()
	if err != nil {
		slog.Error("failed to initialize reminder metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB locally, BigQuery on gcloud
	runRecorder, err := runrecorder.NewRecorder(ctx, cfg.Recorder.RunRecorder())
	if err != nil {
		slog.Error("failed to initialize job run recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := runRecorder.Close(); err != nil {
			slog.Warn("failed to close job run recorder", slog.String("error", err.Error()))
		}
	}()

	dispatcher, cleanup, err := initDispatcher(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize dispatcher", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("dispatcher cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	pool, err := store.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		slog.Error("failed to connect postgres",
			slog.String("event", "postgres.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer pool.Close()

	if cfg.Postgres.Migrate {
		if err := store.Migrate(ctx, pool); err != nil {
			slog.Error("failed to migrate postgres",
				slog.String("event", "postgres.migrate.fail"),
				slog.String("error", err.Error()),
			)
			return 1
		}
	}

	healthChecker := health.NewChecker(Version).Register("postgres", pool)

	notificationLedger, closeLedger, err := initLedger(ctx, cfg, pool, healthChecker)
	if err != nil {
		return 1
	}
	defer closeLedger()

	recordStore := store.NewRecordStore(pool)
	guard := ledger.NewGuard(notificationLedger, cfg.Reminder.LedgerPendingTTL, cfg.Reminder.DispatchTimeout)

	selector := candidate.NewSelector(recordStore, guard, candidate.Config{
		DueDateLeadDays: cfg.Reminder.DueDateLeadDays,
		HistoryDays:     cfg.Reminder.HistoryDays,
		MinSamples:      cfg.Reminder.MinSamples,
		PageSize:        cfg.Reminder.PageSize,
		DefaultLocation: defaultLoc,
	})
	scorer := confidence.NewScorer(cfg.Reminder.MinSamples, cfg.Reminder.ConfidenceThreshold)
	reporter := job.Reporter{Metrics: reminderMetrics, Recorder: runRecorder}

	dueDateService := duedate.NewService(clock.System(), recordStore, selector, guard, dispatcher, reporter, duedate.Config{
		LeadDays:           cfg.Reminder.DueDateLeadDays,
		ReferenceLocation:  referenceLoc,
		Workers:            cfg.Reminder.Workers,
		CandidateTimeout:   cfg.Reminder.CandidateTimeout,
		EnumerationTimeout: cfg.Reminder.EnumerationTimeout,
	})
	habitService := habit.NewService(clock.System(), selector, scorer, guard, dispatcher, reporter, habit.Config{
		Window:             cfg.Reminder.Window(),
		Workers:            cfg.Reminder.Workers,
		CandidateTimeout:   cfg.Reminder.CandidateTimeout,
		EnumerationTimeout: cfg.Reminder.EnumerationTimeout,
	})

	jobHandler := handler.NewJobHandler(dueDateService, habitService)

	if cfg.Env != string(logging.EnvDev) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:  []string{"/health", "/health/live", "/health/ready"},
		Module:     module,
		Worker:     true,
		TracerName: "github.com/KasumiMercury/primind-scan-reminder/internal/observability/middleware",
		JobNameResolver: func(c *gin.Context) string {
			switch c.FullPath() {
			case "/api/v1/jobs/due-date":
				return duedate.JobName
			case "/api/v1/jobs/habit":
				return habit.JobName
			}
			return c.Request.URL.Path
		},
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	grpcHealthPath, grpcHealthHandler := healthChecker.GRPCHandler()
	r.POST(grpcHealthPath+"*method", gin.WrapH(grpcHealthHandler))

	jobHandler.Register(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("ledger_backend", cfg.Reminder.LedgerBackend),
			slog.Int("due_date_lead_days", cfg.Reminder.DueDateLeadDays),
			slog.Int("habit_window_min_minutes", cfg.Reminder.WindowMinMinutes),
			slog.Int("habit_window_max_minutes", cfg.Reminder.WindowMaxMinutes),
			slog.Int("job_workers", cfg.Reminder.Workers),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

// initLedger selects the ledger backend. Failures are logged here.
func initLedger(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, checker *health.Checker) (domain.NotificationLedger, func(), error) {
	switch cfg.Reminder.LedgerBackend {
	case config.LedgerBackendPostgres:
		slog.Info("ledger initialized", slog.String("backend", config.LedgerBackendPostgres))
		return repository.NewPostgresLedger(pool), func() {}, nil

	case config.LedgerBackendMemory:
		slog.Warn("in-memory ledger is process local, duplicate sends are possible across instances",
			slog.String("backend", config.LedgerBackendMemory),
		)
		return repository.NewMemoryLedger(), func() {}, nil
	}

	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(opts)

	closeRedis := func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		closeRedis()
		return nil, nil, err
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		closeRedis()
		return nil, nil, err
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		closeRedis()
		return nil, nil, err
	}

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
		slog.String("backend", config.LedgerBackendRedis),
	)

	checker.Register("redis", health.PingerFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}))

	return repository.NewRedisLedger(redisClient), closeRedis, nil
}
