package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// New builds the service logger. Records are JSON in Kubernetes and in the dev/prod
// environments and colored text everywhere else. LOG_LEVEL overrides the default level.
func New() *slog.Logger {
	return newWithWriter(os.Stdout)
}

func NewWithServiceContext(serviceName, version string) *slog.Logger {
	return New().With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", os.Getenv("ENV")),
	)
}

// NewDiscard returns a logger that drops every record, for tests.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newWithWriter(w io.Writer) *slog.Logger {
	var handler slog.Handler
	if structured() {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(slog.LevelInfo), AddSource: true})
	} else {
		handler = colorText{slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(slog.LevelDebug)})}
	}
	return slog.New(traceContext{handler})
}

func structured() bool {
	if _, ok := os.LookupEnv("KUBERNETES_SERVICE_HOST"); ok {
		return true
	}
	switch os.Getenv("ENV") {
	case "prod", "dev":
		return true
	}
	return false
}

func level(fallback slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(os.Getenv("LOG_LEVEL")))); err != nil {
		return fallback
	}
	return l
}

// colorText paints ERROR messages red.
type colorText struct {
	slog.Handler
}

func (h colorText) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError {
		return h.Handler.Handle(ctx, r)
	}

	red := slog.NewRecord(r.Time, r.Level, "\x1b[31m"+r.Message+"\x1b[0m", r.PC)
	r.Attrs(func(a slog.Attr) bool {
		red.AddAttrs(a)
		return true
	})
	return h.Handler.Handle(ctx, red)
}

func (h colorText) WithAttrs(attrs []slog.Attr) slog.Handler {
	return colorText{h.Handler.WithAttrs(attrs)}
}

func (h colorText) WithGroup(name string) slog.Handler {
	return colorText{h.Handler.WithGroup(name)}
}

// traceContext adds trace_id and span_id when the record's context carries a span.
type traceContext struct {
	slog.Handler
}

func (h traceContext) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceContext) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceContext{h.Handler.WithAttrs(attrs)}
}

func (h traceContext) WithGroup(name string) slog.Handler {
	return traceContext{h.Handler.WithGroup(name)}
}
