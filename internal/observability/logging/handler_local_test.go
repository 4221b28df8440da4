//go:build !gcloud

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLogger_LocalOmitsCloudTraceFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	logger := NewLogger(Config{Environment: EnvDev, GCPProjectID: "demo", Output: &buf})

	logger.InfoContext(ctx, "habit run finished")

	line := decodeLine(t, &buf)
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v", line["trace_id"])
	}
	for key := range line {
		if strings.HasPrefix(key, "logging.googleapis.com/") {
			t.Errorf("unexpected Cloud Logging field %q", key)
		}
	}
}
