package logger

import (
	"context"
	"log/slog"
	"os"
)

type loggerKey struct{}

// FromContext returns the logger attached to ctx, or the process-wide logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return logger
}

// NewContext attaches l to ctx.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// WithContext attaches the context logger extended with args, e.g. a block range or a request id.
func WithContext(ctx context.Context, args ...any) context.Context {
	return NewContext(ctx, FromContext(ctx).With(args...))
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), slog.LevelDebug, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), slog.LevelInfo, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), slog.LevelWarn, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), slog.LevelError, msg, args...)
}

// CriticalContext logs at [LevelCritical]. Used for failures that stop the indexer.
func CriticalContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), LevelCritical, msg, args...)
}

// PanicContext logs at [LevelPanic] and then panics.
func PanicContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), LevelPanic, msg, args...)
	panic(msg)
}

// FatalContext logs at [LevelFatal] and then exits with status 1.
func FatalContext(ctx context.Context, msg string, args ...any) {
	log(ctx, FromContext(ctx), LevelFatal, msg, args...)
	os.Exit(1)
}
