package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

// initialMaxProcs is the value of GOMAXPROCS before Init.
var initialMaxProcs = Current()

// Init sets GOMAXPROCS to the container CPU quota, if any. A GOMAXPROCS environment variable wins.
func Init() error {
	log := logger.With(
		slogx.String("package", "automaxprocs"),
		slogx.String("event", "set_gomaxprocs"),
		slogx.Int("prev_maxprocs", initialMaxProcs),
	)

	printf := func(format string, v ...any) {
		attrs := make([]slog.Attr, 0, 1)
		if val, ok := utils.Optional(v); ok {
			if _, exists := os.LookupEnv("GOMAXPROCS"); exists {
				val = Current()
			}
			if n, ok := val.(int); ok {
				attrs = append(attrs, slogx.Int("set_maxprocs", n))
			}
		}
		log.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...), attrs...)
	}

	if _, err := maxprocs.Set(maxprocs.Logger(printf), maxprocs.Min(1)); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Current returns the current value of GOMAXPROCS.
func Current() int {
	return runtime.GOMAXPROCS(0)
}

// Scaled returns perProc workers for each usable CPU, never fewer than floor.
// Fetch workers wait on the node, so they are sized above the CPU count.
func Scaled(perProc, floor int) int {
	return max(floor, perProc*Current())
}
