package logger

import (
	"fmt"
	"log/slog"
	"os"
)

const (
	LevelCritical = slog.Level(12)
	LevelPanic    = slog.Level(14)
	LevelFatal    = slog.Level(16)
)

type attrReplacer = func(groups []string, attr slog.Attr) slog.Attr

// levelName renders the custom levels above ERROR, e.g. CRITICAL or PANIC+1.
func levelName(l slog.Level) string {
	base, offset := "", slog.Level(0)
	switch {
	case l < LevelCritical:
		return l.String()
	case l < LevelPanic:
		base, offset = "CRITICAL", l-LevelCritical
	case l < LevelFatal:
		base, offset = "PANIC", l-LevelPanic
	default:
		base, offset = "FATAL", l-LevelFatal
	}
	if offset == 0 {
		return base
	}
	return fmt.Sprintf("%s%+d", base, offset)
}

func levelAttrReplacer(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 || attr.Key != LevelKey {
		return attr
	}
	if l, ok := attr.Value.Any().(slog.Level); ok && l >= LevelCritical {
		attr.Value = slog.StringValue(levelName(l))
	}
	return attr
}

// durationToMsAttrReplacer renders durations as integer milliseconds for machine-readable outputs.
func durationToMsAttrReplacer(_ []string, attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindDuration {
		attr.Value = slog.Int64Value(attr.Value.Duration().Milliseconds())
	}
	return attr
}

// NewGCPHandler returns a JSON handler using the Cloud Logging field names.
func NewGCPHandler(opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       opts.Level,
		ReplaceAttr: attrReplacerChain(GCPAttrReplacer, opts.ReplaceAttr),
	})
}

// GCPAttrReplacer maps the default keys and levels to Cloud Logging's.
func GCPAttrReplacer(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case MessageKey:
		attr.Key = "message"
	case SourceKey:
		attr.Key = "logging.googleapis.com/sourceLocation"
	case LevelKey:
		attr.Key = "severity"
		if l, ok := attr.Value.Any().(slog.Level); ok {
			attr.Value = slog.StringValue(gcpSeverity(l))
		}
	}
	return attr
}

// https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry#logseverity
func gcpSeverity(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARNING"
	case l < LevelCritical:
		return "ERROR"
	case l < LevelPanic:
		return "CRITICAL"
	case l < LevelFatal:
		return "ALERT"
	default:
		return "EMERGENCY"
	}
}
