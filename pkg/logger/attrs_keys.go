package logger

import (
	"log/slog"

	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
)

// Keys for log attributes.
const (
	TimeKey         = slog.TimeKey
	LevelKey        = slog.LevelKey
	MessageKey      = slog.MessageKey
	SourceKey       = slog.SourceKey
	ErrorKey        = slogx.ErrorKey
	ErrorVerboseKey = "error_verbose"
)
