package datagateway

import (
	"context"

	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

// SinkWriter writes normalized transfers. Write must be idempotent on entity.Transfer.Key
// and safe for concurrent use.
type SinkWriter interface {
	Name() string
	Write(ctx context.Context, symbol string, record entity.Transfer) error
}

// BatchFlusher is implemented by sinks that buffer writes until the whole batch [from, to] is processed.
type BatchFlusher interface {
	Flush(ctx context.Context, from, to uint64) error
}

// CheckpointDataGateway persists the last fully ingested block number.
type CheckpointDataGateway interface {
	// GetCheckpoint returns errs.NotFound if no checkpoint was committed yet.
	GetCheckpoint(ctx context.Context) (uint64, error)
	SetCheckpoint(ctx context.Context, blockNumber uint64) error
}

type IndexerInfoDataGateway interface {
	// GetLatestIndexerState returns errs.NotFound if the indexer state was never set.
	GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error)
	SetIndexerState(ctx context.Context, state entity.IndexerState) error
}
