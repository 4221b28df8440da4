package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-scan-reminder/internal/pushstub"
)

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(logging.NewLogger(logging.Config{
		Service:     logging.ServiceInfo{Name: "push-stub", Version: "dev"},
		Environment: logging.EnvDev,
		Module:      logging.Module("push-stub"),
		Level:       slog.LevelDebug,
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	gin.SetMode(gin.ReleaseMode)
	router := pushstub.NewRouter(pushstub.NewStorage())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("push stub listening", slog.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		slog.Error("push stub failed", slog.String("error", err.Error()))
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("push stub shutdown failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
