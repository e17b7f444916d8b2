// Package slogx provides typed slog attribute constructors with the key conventions used across the indexer.
package slogx

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Group(key string, args ...any) slog.Attr {
	return slog.Group(key, args...)
}

// Error returns an attr under [ErrorKey]. A nil error yields an empty attr, which handlers drop.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(ErrorKey, err)
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Stringer renders value with String. Nil values, including typed nil pointers, render as "<nil>".
func Stringer(key string, value fmt.Stringer) slog.Attr {
	if value == nil {
		return slog.String(key, "<nil>")
	}
	if v := reflect.ValueOf(value); v.Kind() == reflect.Pointer && v.IsNil() {
		return slog.String(key, "<nil>")
	}
	return slog.String(key, value.String())
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Uint64(key string, v uint64) slog.Attr {
	return slog.Uint64(key, v)
}

func Duration(key string, v time.Duration) slog.Attr {
	return slog.Duration(key, v)
}

// BlockRange groups an inclusive block range under "blocks".
func BlockRange(from, to uint64) slog.Attr {
	return slog.Group("blocks", slog.Uint64("from", from), slog.Uint64("to", to))
}
