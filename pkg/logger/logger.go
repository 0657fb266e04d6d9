package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// New returns the process-wide structured logger. Output is JSON on
// stdout so call lifecycle events can be correlated by call_id in log
// aggregation.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
// Webhook and reconciliation code uses this so every line carries the
// originating request_id.
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ShutdownFlush is a placeholder for future log flushing (if a buffered handler is used).
func ShutdownFlush(_ context.Context, _ time.Duration) error { return nil }
