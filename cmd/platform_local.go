//go:build !gcloud

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/KasumiMercury/primind-scan-reminder/internal/config"
	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/push"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/logging"
)

func initDispatcher(_ context.Context, cfg *config.Config) (domain.Dispatcher, func() error, error) {
	client := push.NewGatewayClient(cfg.Dispatcher.PushGatewayURL, cfg.Dispatcher.MaxRetries)

	slog.Info("dispatcher initialized",
		slog.String("type", "push_gateway"),
		slog.String("url", cfg.Dispatcher.PushGatewayURL),
		slog.Int("max_retries", cfg.Dispatcher.MaxRetries),
	)

	return client, nil, nil
}

func initObservability(ctx context.Context) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "scan-reminder"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: Version,
		},
		Environment:   env,
		SamplingRate:  1.0,
		DefaultModule: module,
		LogLevel:      os.Getenv("LOG_LEVEL"),
	})
}
