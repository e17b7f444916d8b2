package indexer

import (
	"context"

	"github.com/gaze-network/erc20-indexer/core/types"
)

type IndexerWorker interface {
	Run(ctx context.Context) error
}

// Processor turns fetched blocks into sink writes.
// Process is called concurrently for different blocks of the same batch.
type Processor interface {
	Name() string

	// Process extracts the records of a block and writes them to the sink.
	// It must be safe to call again for the same block after a failed batch.
	Process(ctx context.Context, block *types.Block) error

	// Flush is called after every block of the range is processed and before the checkpoint is committed.
	Flush(ctx context.Context, blockRange BlockRange) error

	Shutdown(ctx context.Context) error
}

// BatchStarter is an optional Processor extension notified before the first block of each batch attempt.
type BatchStarter interface {
	StartBatch(ctx context.Context, blockRange BlockRange)
}

// Committer is an optional Processor extension notified after a batch checkpoint is durable.
type Committer interface {
	Committed(ctx context.Context, blockRange BlockRange)
}

// Checkpoint is the durable cursor of the last fully ingested block.
type Checkpoint interface {
	// Load returns the persisted block number, or errs.NotFound if nothing was persisted yet.
	Load(ctx context.Context) (uint64, error)

	// Commit persists the block number. It must be durable when it returns.
	Commit(ctx context.Context, blockNumber uint64) error
}
