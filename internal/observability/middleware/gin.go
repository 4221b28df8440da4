package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-scan-reminder/internal/observability/metrics"
)

type GinConfig struct {
	// SkipPaths are neither traced nor logged (probes).
	SkipPaths []string
	Module    logging.Module
	// Worker marks the service as triggered by a scheduler rather than end users.
	Worker          bool
	TracerName      string
	JobNameResolver func(c *gin.Context) string
	HTTPMetrics     *metrics.HTTPMetrics
}

// Gin traces, logs and measures every request outside SkipPaths.
func Gin(cfg GinConfig) gin.HandlerFunc {
	tracer := otel.Tracer(cfg.TracerName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("module", string(cfg.Module)),
		}

		jobName := ""
		if cfg.Worker && cfg.JobNameResolver != nil {
			jobName = cfg.JobNameResolver(c)
			attrs = append(attrs, attribute.String("job.name", jobName))
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)

		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		cfg.HTTPMetrics.RecordRequest(ctx, c.Request.Method, route, status, duration)

		logAttrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Int64("duration_ms", duration.Milliseconds()),
		}
		if jobName != "" {
			logAttrs = append(logAttrs, slog.String("job", jobName))
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.ErrorContext(ctx, "request completed", logAttrs...)
		case status >= http.StatusBadRequest:
			slog.WarnContext(ctx, "request completed", logAttrs...)
		default:
			slog.InfoContext(ctx, "request completed", logAttrs...)
		}
	}
}

// PanicRecoveryGin turns a handler panic into a logged 500.
func PanicRecoveryGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.Request.Context()

				if span := trace.SpanFromContext(ctx); span.IsRecording() {
					span.SetStatus(codes.Error, "panic")
				}

				slog.ErrorContext(ctx, "panic recovered",
					slog.String("event", "http.panic"),
					slog.String("panic", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
					slog.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()

		c.Next()
	}
}
