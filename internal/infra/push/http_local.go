//go:build !gcloud

package push

import "net/http"

// newHTTPClient talks to a gateway or pushstub that needs no credentials.
func newHTTPClient(_ string) *http.Client {
	return &http.Client{Timeout: gatewayRequestTimeout}
}
