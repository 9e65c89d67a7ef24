package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextHandler(t *testing.T) {
	t.Setenv("ENV", "dev")

	var buf bytes.Buffer
	log := newWithWriter(&buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	log.InfoContext(ctx, "session approved")

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, out, `"span_id":"00f067aa0ba902b7"`)
}

func TestColorTextHandler_ErrorsAreRed(t *testing.T) {
	t.Setenv("ENV", "local")

	var buf bytes.Buffer
	log := newWithWriter(&buf)

	log.Error("store unavailable")
	log.Info("listening")

	out := buf.String()
	// the text handler quotes control characters
	assert.Contains(t, out, `\x1b[31mstore unavailable\x1b[0m`)
	assert.Contains(t, out, "msg=listening")
}

func TestLogLevelOverride(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	log := newWithWriter(&buf)

	log.Info("booking created")
	log.Warn("publisher unavailable")

	out := buf.String()
	assert.NotContains(t, out, "booking created")
	assert.Contains(t, out, "publisher unavailable")
}
