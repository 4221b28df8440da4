//go:build !gcloud

package push

import "testing"

func TestNewHTTPClient_BoundsGatewayRequests(t *testing.T) {
	client := newHTTPClient("http://localhost:8081")
	if client.Timeout != gatewayRequestTimeout {
		t.Errorf("Timeout = %s, want %s", client.Timeout, gatewayRequestTimeout)
	}
}
