//go:build !gcloud

package logging

import (
	"context"
	"log/slog"
)

// gcpTraceAttrs adds nothing outside Cloud Logging; trace_id and span_id
// from contextHandler are enough for a local collector.
func gcpTraceAttrs(context.Context, string) []slog.Attr { return nil }
