package datasources

import (
	"context"

	"github.com/gaze-network/erc20-indexer/core/types"
)

// Datasource is an interface for indexer data sources.
type Datasource interface {
	Name() string

	// FetchBlock returns the block at the given number, enriched with the receipt logs
	// of the transactions selected by the datasource.
	FetchBlock(ctx context.Context, number uint64) (*types.Block, error)

	// LatestBlockNumber returns the current chain head.
	LatestBlockNumber(ctx context.Context) (uint64, error)
}
