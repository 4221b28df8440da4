package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Environment string

const (
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

// Module names the component a log line originates from.
type Module string

type ServiceInfo struct {
	Name     string
	Version  string
	Revision string
}

type Config struct {
	Service      ServiceInfo
	Environment  Environment
	Module       Module
	Level        slog.Level
	GCPProjectID string
	Output       io.Writer
}

// NewLogger builds the JSON logger every component writes through.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	base := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource:   cfg.Environment == EnvDev,
		Level:       cfg.Level,
		ReplaceAttr: replaceAttr,
	})

	service := []any{
		slog.String("name", cfg.Service.Name),
		slog.String("version", cfg.Service.Version),
	}
	if cfg.Service.Revision != "" {
		service = append(service, slog.String("revision", cfg.Service.Revision))
	}

	attrs := []slog.Attr{
		slog.Group("service", service...),
		slog.String("env", string(cfg.Environment)),
	}
	if cfg.Module != "" {
		attrs = append(attrs, slog.String("module", string(cfg.Module)))
	}

	return slog.New(&contextHandler{
		Handler:   base.WithAttrs(attrs),
		projectID: cfg.GCPProjectID,
	})
}

// WithModule returns a logger whose lines carry the given module name.
func WithModule(logger *slog.Logger, module Module) *slog.Logger {
	return logger.With(slog.String("module", string(module)))
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextHandler struct {
	slog.Handler
	projectID string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
		r.AddAttrs(gcpTraceAttrs(ctx, h.projectID)...)
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), projectID: h.projectID}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), projectID: h.projectID}
}

// Cloud Logging reads "severity" and "message".
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.MessageKey:
		a.Key = "message"
	}

	return a
}
