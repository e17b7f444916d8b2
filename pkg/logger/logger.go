// nolint: sloglint
package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultLevel is the minimum level before [Init] is called.
const DefaultLevel = slog.LevelDebug

var (
	lvl = new(slog.LevelVar)

	// logger is the process-wide logger. Context loggers derive from it.
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: levelAttrReplacer,
	}))
)

func init() {
	lvl.Set(DefaultLevel)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

// Config is the logger configuration.
type Config struct {
	// Output is the logger output format.
	// Possible values:
	//  - Text (default)
	//  - JSON
	//  - GCP: Output format for Stackdriver Logging/Cloud Logging or others GCP services.
	Output string `mapstructure:"output"`

	// Level is the minimum level: debug, info (default), warn or error.
	Level string `mapstructure:"level"`

	// Debug enables debug level, source locations and verbose errors. (default: false)
	Debug bool `mapstructure:"debug"`
}

// Init replaces the process-wide logger and the slog default with one built from cfg.
func Init(cfg Config) error {
	level := slog.LevelInfo
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return errors.Wrapf(err, "invalid logger level %q", cfg.Level)
		}
	}

	options := &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: levelAttrReplacer,
	}
	var middlewares []middleware
	if cfg.Debug {
		level = slog.LevelDebug
		options.AddSource = true
		middlewares = append(middlewares, middlewareError())
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Output) {
	case "text", "":
		handler = slog.NewTextHandler(os.Stdout, options)
	case "json":
		options.ReplaceAttr = attrReplacerChain(levelAttrReplacer, durationToMsAttrReplacer)
		handler = slog.NewJSONHandler(os.Stdout, options)
	case "gcp":
		options.ReplaceAttr = attrReplacerChain(levelAttrReplacer, durationToMsAttrReplacer)
		handler = NewGCPHandler(options)
	default:
		return errors.Errorf("unsupported logger output %q, expected one of text, json or gcp", cfg.Output)
	}

	lvl.Set(level)
	logger = slog.New(newChainHandlers(handler, middlewares...))
	slog.SetDefault(logger)
	return nil
}

// SetLevel sets the minimum reporting level and returns the previous one.
func SetLevel(level slog.Level) (old slog.Level) {
	old = lvl.Level()
	lvl.Set(level)
	return old
}

// With returns the process-wide logger with the given attributes.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}

// Error logs at [slog.LevelError] without a context.
func Error(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelError, msg, args...)
}

// Panic logs at [LevelPanic] and then panics.
func Panic(msg string, args ...any) {
	log(context.Background(), logger, LevelPanic, msg, args...)
	panic(msg)
}

// LogAttrs logs attrs with the logger carried by ctx.
func LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, FromContext(ctx), level, msg, attrs...)
}

func attrReplacerChain(replacers ...attrReplacer) attrReplacer {
	return func(groups []string, attr slog.Attr) slog.Attr {
		for _, replace := range replacers {
			attr = replace(groups, attr)
		}
		return attr
	}
}

// log must be called directly by an exported function of this package so the source location points at its caller.
func log(ctx context.Context, l *slog.Logger, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, callerPC())
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

// logAttrs is like log, for callers that already hold attrs.
func logAttrs(ctx context.Context, l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, callerPC())
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}

// callerPC skips runtime.Callers, callerPC, the internal log function and the exported wrapper.
func callerPC() uintptr {
	var pcs [1]uintptr
	runtime.Callers(4, pcs[:])
	return pcs[0]
}
