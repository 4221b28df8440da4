package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/tracing"
)

const (
	defaultMaxRetries     = 3
	gatewayRequestTimeout = 30 * time.Second
)

// GatewayClient sends pushes to an HTTP push gateway. The ledger key travels
// as the Idempotency-Key header so the gateway can drop replays.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewGatewayClient(baseURL string, maxRetries int) *GatewayClient {
	return NewGatewayClientWithHTTPClient(baseURL, maxRetries, newHTTPClient(baseURL))
}

func NewGatewayClientWithHTTPClient(baseURL string, maxRetries int, httpClient *http.Client) *GatewayClient {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		maxRetries: maxRetries,
	}
}

func (c *GatewayClient) Send(ctx context.Context, n *domain.Notification) (string, error) {
	if n.Token == "" {
		return "", fmt.Errorf("empty delivery token: %w", domain.ErrInvalidToken)
	}

	body, err := json.Marshal(NewMessage(n))
	if err != nil {
		return "", fmt.Errorf("failed to marshal push message: %w", err)
	}

	url := c.baseURL + MessagesPath

	ctx, span := tracing.StartExternalAPISpan(ctx, "push_send", url)
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying push send",
				slog.String("idempotency_key", n.IdempotencyKey),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				tracing.RecordError(span, ctx.Err())
				return "", fmt.Errorf("%w: %w", domain.ErrDispatchTransient, ctx.Err())
			case <-time.After(backoff):
			}
		}

		messageID, err := c.doRequest(ctx, url, body, n.IdempotencyKey)
		if err == nil {
			return messageID, nil
		}
		lastErr = err
		if domain.IsPermanentDispatchError(err) {
			break
		}
	}

	tracing.RecordError(span, lastErr)
	return "", lastErr
}

func (c *GatewayClient) doRequest(ctx context.Context, url string, body []byte, idempotencyKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "failed to send request to push gateway",
			slog.String("idempotency_key", idempotencyKey),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %w", domain.ErrDispatchTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusGone:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("push gateway rejected token with status %d: %w", resp.StatusCode, domain.ErrInvalidToken)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.WarnContext(ctx, "unexpected status code from push gateway",
			slog.String("idempotency_key", idempotencyKey),
			slog.Int("status_code", resp.StatusCode),
		)
		return "", fmt.Errorf("push gateway status %d: %w", resp.StatusCode, domain.ErrDispatchTransient)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return "", fmt.Errorf("failed to decode push receipt: %w: %w", domain.ErrDispatchTransient, err)
	}

	return receipt.MessageID, nil
}
