package indexer

import (
	"context"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/core/datasources"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 8

// BatchScheduler fetches and processes the blocks of a range concurrently and commits
// the checkpoint only when every block of the range succeeded.
type BatchScheduler struct {
	datasource datasources.Datasource
	processor  Processor
	checkpoint Checkpoint
	workers    int
}

func NewBatchScheduler(datasource datasources.Datasource, processor Processor, checkpoint Checkpoint, workers int) *BatchScheduler {
	return &BatchScheduler{
		datasource: datasource,
		processor:  processor,
		checkpoint: checkpoint,
		workers:    utils.Default(workers, DefaultWorkers),
	}
}

// RunBatch processes every block of the range with at most `workers` blocks in flight.
// Blocks complete in any order. If any block fails the remaining work is cancelled and the
// checkpoint is left untouched. On success the checkpoint is committed to blockRange.End
// and that block number is returned.
func (s *BatchScheduler) RunBatch(ctx context.Context, blockRange BlockRange) (uint64, error) {
	if blockRange.Len() == 0 {
		return 0, errors.Errorf("empty block range %s", blockRange)
	}
	if starter, ok := s.processor.(BatchStarter); ok {
		starter.StartBatch(ctx, blockRange)
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for n := blockRange.Start; n <= blockRange.End; n++ {
		if ectx.Err() != nil {
			break
		}
		eg.Go(func() error {
			block, err := s.datasource.FetchBlock(ectx, n)
			if err != nil {
				return errors.Wrapf(err, "can't fetch block %d", n)
			}
			if err := s.processor.Process(ectx, block); err != nil {
				return errors.Wrapf(err, "can't process block %d", n)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, errors.WithStack(err)
	}
	// blocks may have been left unscheduled
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrapf(err, "batch %s cancelled", blockRange)
	}

	if err := s.processor.Flush(ctx, blockRange); err != nil {
		return 0, errors.Wrapf(err, "can't flush batch %s", blockRange)
	}

	if err := s.checkpoint.Commit(ctx, blockRange.End); err != nil {
		return 0, errors.Wrapf(err, "can't commit checkpoint %d", blockRange.End)
	}
	return blockRange.End, nil
}
