package erc20

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/core/indexer"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
)

var _ indexer.Checkpoint = (*checkpointStore)(nil)

type checkpointStore struct {
	dg datagateway.CheckpointDataGateway
}

func newCheckpointStore(dg datagateway.CheckpointDataGateway) *checkpointStore {
	return &checkpointStore{dg: dg}
}

func (c *checkpointStore) Load(ctx context.Context) (uint64, error) {
	blockNumber, err := c.dg.GetCheckpoint(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "can't get checkpoint")
	}
	return blockNumber, nil
}

func (c *checkpointStore) Commit(ctx context.Context, blockNumber uint64) error {
	if err := c.dg.SetCheckpoint(ctx, blockNumber); err != nil {
		return errors.Wrapf(err, "can't set checkpoint to %d", blockNumber)
	}
	return nil
}
