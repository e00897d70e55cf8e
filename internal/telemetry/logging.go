package telemetry

import (
	"context"
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger whose records carry trace_id and
// span_id whenever the context holds an active span, so webhook log
// lines can be joined with their traces.
func NewLogger(level slog.Level) *slog.Logger {
	base := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(&traceHandler{baseHandler: base})
}

// traceHandler decorates a slog.Handler with span context attributes.
// WithAttrs and WithGroup are buffered here and replayed onto the base
// handler at Handle time, after the trace attributes, so trace ids
// always land at the top level of the record.
type traceHandler struct {
	baseHandler slog.Handler
	groups      []string
	attrs       []slog.Attr
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.baseHandler.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := h.baseHandler

	var spanAttrs []slog.Attr
	if traceID := TraceID(ctx); traceID != "" {
		spanAttrs = append(spanAttrs, slog.String("trace_id", traceID))
	}
	if spanID := SpanID(ctx); spanID != "" {
		spanAttrs = append(spanAttrs, slog.String("span_id", spanID))
	}
	if len(spanAttrs) > 0 {
		handler = handler.WithAttrs(spanAttrs)
	}

	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	for _, group := range h.groups {
		handler = handler.WithGroup(group)
	}

	return handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &traceHandler{
		baseHandler: h.baseHandler,
		groups:      h.groups,
		attrs:       merged,
	}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{
		baseHandler: h.baseHandler,
		groups:      append(append([]string{}, h.groups...), name),
		attrs:       h.attrs,
	}
}
