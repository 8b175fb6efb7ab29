package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/clog"

	"github.com/hrsight/hrsight/internal/config"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	var handler slog.Handler
	switch cfg.Observability.LogFormat {
	case config.LogFormatText:
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	case config.LogFormatConsole:
		handler = clog.New(
			clog.WithWriter(writer),
			clog.WithLevel(cfg.Observability.LogLevel),
			clog.WithTimeFmt("15:04:05"),
			clog.WithSource(false),
		)
	default:
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
