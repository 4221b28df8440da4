//go:build gcloud

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

func initDispatcher(ctx context.Context, cfg *config.Config) (domain.Dispatcher, func() error, error) {
	if !cfg.Dispatcher.UseCloudTasks() {
		client := push.NewGatewayClient(cfg.Dispatcher.PushGatewayURL, cfg.Dispatcher.MaxRetries)

		slog.Info("dispatcher initialized",
			slog.String("type", "push_gateway"),
			slog.String("url", cfg.Dispatcher.PushGatewayURL),
		)

		return client, nil, nil
	}

	dispatcher, err := push.NewCloudTasksDispatcher(ctx, push.CloudTasksConfig{
		ProjectID:  cfg.Dispatcher.GCloudProjectID,
		LocationID: cfg.Dispatcher.GCloudLocationID,
		QueueID:    cfg.Dispatcher.GCloudQueueID,
		TargetURL:  cfg.Dispatcher.GCloudTargetURL,
		MaxRetries: cfg.Dispatcher.MaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("dispatcher initialized",
		slog.String("type", "cloud_tasks"),
		slog.String("project", cfg.Dispatcher.GCloudProjectID),
		slog.String("location", cfg.Dispatcher.GCloudLocationID),
		slog.String("queue", cfg.Dispatcher.GCloudQueueID),
	)

	cleanup := func() error {
		if err := dispatcher.Close(); err != nil {
			slog.Warn("failed to close cloud tasks client", slog.String("error", err.Error()))

			return err
		}

		return nil
	}

	return dispatcher, cleanup, nil
}

func initObservability(ctx context.Context) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = "scan-reminder"
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GCLOUD_PROJECT_ID")
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:   env,
		GCPProjectID:  projectID,
		SamplingRate:  1.0,
		DefaultModule: module,
		LogLevel:      os.Getenv("LOG_LEVEL"),
	})
}
