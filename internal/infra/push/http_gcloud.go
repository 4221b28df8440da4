//go:build gcloud

package push

import (
	"context"
	"log/slog"
	"net/http"

	"google.golang.org/api/idtoken"
)

// newHTTPClient signs gateway requests with an ID token whose audience is the
// push gateway URL, which is what a private Cloud Run gateway checks.
func newHTTPClient(gatewayURL string) *http.Client {
	client, err := idtoken.NewClient(context.Background(), gatewayURL)
	if err != nil {
		slog.Error("push gateway ID token unavailable, sending unauthenticated",
			slog.String("audience", gatewayURL),
			slog.String("error", err.Error()),
		)
		return &http.Client{Timeout: gatewayRequestTimeout}
	}
	client.Timeout = gatewayRequestTimeout
	return client
}
