package push_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/push"
	"github.com/KasumiMercury/primind-scan-reminder/internal/pushstub"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupGateway(t *testing.T) (*push.GatewayClient, *pushstub.Storage) {
	t.Helper()

	storage := pushstub.NewStorage()
	server := httptest.NewServer(pushstub.NewRouter(storage))
	t.Cleanup(server.Close)

	return push.NewGatewayClientWithHTTPClient(server.URL, 3, server.Client()), storage
}

func dueDateNotification(token string) *domain.Notification {
	profile := domain.UserProfile{ID: "user-1", DeliveryToken: token, NotificationsEnabled: true}
	record := domain.ActionableRecord{ID: "rec-1", UserID: "user-1", DueAt: time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC), Confidence: domain.ConfidenceHigh}
	return domain.NewDueDateReminder(profile, record)
}

func TestGatewayClient_Send(t *testing.T) {
	client, storage := setupGateway(t)

	id, err := client.Send(context.Background(), dueDateNotification("tok-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected message id")
	}

	delivered := storage.Delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected 1 delivered push, got %d", len(delivered))
	}
	got := delivered[0]
	if got.IdempotencyKey != "due_date:rec-1" {
		t.Errorf("unexpected idempotency key %q", got.IdempotencyKey)
	}
	if got.Message.Token != "tok-1" || got.Message.Title != domain.DueDateReminderTitle {
		t.Errorf("unexpected message: %+v", got.Message)
	}
	if got.Message.Data["type"] != "due_date_reminder" || got.Message.Data["record_id"] != "rec-1" {
		t.Errorf("unexpected data: %+v", got.Message.Data)
	}
}

func TestGatewayClient_ReplayReturnsSameMessage(t *testing.T) {
	client, storage := setupGateway(t)
	n := dueDateNotification("tok-1")

	first, err := client.Send(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.Send(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected replay to return %q, got %q", first, second)
	}
	if len(storage.Delivered()) != 1 {
		t.Errorf("expected a single delivery, got %d", len(storage.Delivered()))
	}
}

func TestGatewayClient_RetriesTransientFailures(t *testing.T) {
	client, storage := setupGateway(t)
	storage.FailNext(2)

	id, err := client.Send(context.Background(), dueDateNotification("tok-1"))
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if id == "" {
		t.Error("expected message id")
	}
}

func TestGatewayClient_ExhaustedRetriesAreTransient(t *testing.T) {
	client, storage := setupGateway(t)
	storage.FailNext(3)

	_, err := client.Send(context.Background(), dueDateNotification("tok-1"))
	if !errors.Is(err, domain.ErrDispatchTransient) {
		t.Fatalf("expected ErrDispatchTransient, got %v", err)
	}
	if len(storage.Delivered()) != 0 {
		t.Error("expected nothing delivered")
	}
}

func TestGatewayClient_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		setup func(s *pushstub.Storage)
	}{
		{
			name:  "token rejected by gateway",
			token: "tok-stale",
			setup: func(s *pushstub.Storage) { s.InvalidateToken("tok-stale") },
		},
		{
			name:  "empty token",
			token: "",
			setup: func(*pushstub.Storage) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, storage := setupGateway(t)
			tt.setup(storage)

			_, err := client.Send(context.Background(), dueDateNotification(tt.token))
			if !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
			if !domain.IsPermanentDispatchError(err) {
				t.Error("expected permanent classification")
			}
		})
	}
}

func TestGatewayClient_InvalidTokenIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	client := push.NewGatewayClientWithHTTPClient(server.URL, 3, server.Client())

	_, err := client.Send(context.Background(), dueDateNotification("tok-1"))
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestGatewayClient_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := push.NewGatewayClientWithHTTPClient(url, 1, &http.Client{Timeout: time.Second})

	_, err := client.Send(context.Background(), dueDateNotification("tok-1"))
	if !errors.Is(err, domain.ErrDispatchTransient) {
		t.Fatalf("expected ErrDispatchTransient, got %v", err)
	}
}
