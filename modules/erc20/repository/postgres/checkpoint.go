package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) GetCheckpoint(ctx context.Context) (uint64, error) {
	checkpoint, err := r.queries.GetCheckpoint(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.WithStack(errs.NotFound)
		}
		return 0, errors.Wrap(err, "error during query")
	}
	return uint64(checkpoint.BlockNumber), nil
}

func (r *Repository) SetCheckpoint(ctx context.Context, blockNumber uint64) error {
	if err := r.queries.SetCheckpoint(ctx, int64(blockNumber)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error) {
	indexerStateModel, err := r.queries.GetLatestIndexerState(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.IndexerState{}, errors.WithStack(errs.NotFound)
		}
		return entity.IndexerState{}, errors.Wrap(err, "error during query")
	}
	return mapIndexerStateModelToType(indexerStateModel), nil
}

func (r *Repository) SetIndexerState(ctx context.Context, state entity.IndexerState) error {
	if err := r.queries.SetIndexerState(ctx, mapIndexerStateTypeToParams(state)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}
