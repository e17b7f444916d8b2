package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/golang-migrate/migrate/v4"
)

var _ migrate.Logger = (*migrationLogger)(nil)

// migrationLogger forwards golang-migrate output to the structured logger.
type migrationLogger struct {
	module  string
	verbose bool
}

func (l *migrationLogger) Printf(format string, v ...interface{}) {
	logger.InfoContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)),
		slogx.String("event", "migrate"),
		slogx.String("module", l.module),
	)
}

func (l *migrationLogger) Verbose() bool {
	return l.verbose
}
