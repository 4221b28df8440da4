//go:build gcloud

package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

type CloudTasksConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	TargetURL  string
	MaxRetries int
}

// CloudTasksDispatcher hands pushes to a Cloud Tasks queue whose target is
// the push gateway. Tasks are named after the ledger key, so an enqueue
// replay is rejected by Cloud Tasks with AlreadyExists.
type CloudTasksDispatcher struct {
	client     *cloudtasks.Client
	projectID  string
	locationID string
	queueID    string
	targetURL  string
	maxRetries int
}

func NewCloudTasksDispatcher(ctx context.Context, cfg CloudTasksConfig) (*CloudTasksDispatcher, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &CloudTasksDispatcher{
		client:     client,
		projectID:  cfg.ProjectID,
		locationID: cfg.LocationID,
		queueID:    cfg.QueueID,
		targetURL:  cfg.TargetURL,
		maxRetries: maxRetries,
	}, nil
}

func (d *CloudTasksDispatcher) queuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", d.projectID, d.locationID, d.queueID)
}

func (d *CloudTasksDispatcher) Send(ctx context.Context, n *domain.Notification) (string, error) {
	if n.Token == "" {
		return "", fmt.Errorf("empty delivery token: %w", domain.ErrInvalidToken)
	}

	payload, err := json.Marshal(NewMessage(n))
	if err != nil {
		return "", fmt.Errorf("failed to marshal push message: %w", err)
	}

	task := &taskspb.Task{
		MessageType: &taskspb.Task_HttpRequest{
			HttpRequest: &taskspb.HttpRequest{
				HttpMethod: taskspb.HttpMethod_POST,
				Url:        d.targetURL + MessagesPath,
				Headers: map[string]string{
					"Content-Type":       "application/json",
					IdempotencyKeyHeader: n.IdempotencyKey,
				},
				Body: payload,
			},
		},
		ScheduleTime: timestamppb.New(time.Now()),
	}
	if n.IdempotencyKey != "" {
		task.Name = fmt.Sprintf("%s/tasks/%s", d.queuePath(), taskID(n.IdempotencyKey))
	}

	req := &taskspb.CreateTaskRequest{
		Parent: d.queuePath(),
		Task:   task,
	}

	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying cloud task creation",
				slog.String("idempotency_key", n.IdempotencyKey),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", domain.ErrDispatchTransient, ctx.Err())
			case <-time.After(backoff):
			}
		}

		name, err := d.createTask(ctx, req, n.IdempotencyKey)
		if err == nil {
			return name, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}

	slog.ErrorContext(ctx, "all retries exhausted for cloud task creation",
		slog.String("idempotency_key", n.IdempotencyKey),
		slog.Int("max_retries", d.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return "", fmt.Errorf("%w: %w", domain.ErrDispatchTransient, lastErr)
}

func (d *CloudTasksDispatcher) createTask(ctx context.Context, req *taskspb.CreateTaskRequest, idempotencyKey string) (string, error) {
	created, err := d.client.CreateTask(ctx, req)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			slog.InfoContext(ctx, "cloud task already exists, treating as sent",
				slog.String("task_name", req.Task.Name),
				slog.String("idempotency_key", idempotencyKey),
			)
			return req.Task.Name, nil
		}

		slog.WarnContext(ctx, "failed to create cloud task",
			slog.String("idempotency_key", idempotencyKey),
			slog.String("code", status.Code(err).String()),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("failed to create cloud task: %w", err)
	}

	slog.DebugContext(ctx, "push task registered to Cloud Tasks",
		slog.String("task_name", created.Name),
		slog.String("idempotency_key", idempotencyKey),
	)

	return created.Name, nil
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal, codes.Unknown:
		return true
	default:
		return false
	}
}

func (d *CloudTasksDispatcher) Close() error {
	return d.client.Close()
}
