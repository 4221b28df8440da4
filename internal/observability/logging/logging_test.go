package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}

	return line
}

func TestNewLogger_StampsServiceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Service:     ServiceInfo{Name: "reminder", Version: "1.2.3"},
		Environment: EnvProd,
		Module:      Module("scan-reminder"),
		Level:       slog.LevelInfo,
		Output:      &buf,
	})

	logger.Warn("candidate failed", slog.String("subject_id", "rec-1"))

	line := decodeLine(t, &buf)

	if line["severity"] != "WARNING" {
		t.Errorf("severity = %v, want WARNING", line["severity"])
	}
	if line["message"] != "candidate failed" {
		t.Errorf("message = %v", line["message"])
	}
	if line["module"] != "scan-reminder" {
		t.Errorf("module = %v", line["module"])
	}
	if line["env"] != "prod" {
		t.Errorf("env = %v", line["env"])
	}
	service, ok := line["service"].(map[string]any)
	if !ok || service["name"] != "reminder" || service["version"] != "1.2.3" {
		t.Errorf("service = %v", line["service"])
	}
	if _, ok := line["trace_id"]; ok {
		t.Error("trace_id should be absent without a span")
	}
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Environment: EnvProd, Level: slog.LevelInfo, Output: &buf})

	logger.Debug("decision")

	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %s", buf.String())
	}
}

func TestNewLogger_AddsTraceCorrelation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	logger := NewLogger(Config{Environment: EnvProd, Output: &buf})

	logger.InfoContext(ctx, "reminder sent")

	line := decodeLine(t, &buf)
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", line["trace_id"], span.SpanContext().TraceID())
	}
	if line["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("span_id = %v", line["span_id"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
