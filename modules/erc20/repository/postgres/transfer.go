package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

// Write inserts the transfer. Rows that already exist for the natural key are left untouched.
func (r *Repository) Write(ctx context.Context, _ string, record entity.Transfer) error {
	params := mapTransferTypeToParams(record)
	if err := r.queries.CreateTransfer(ctx, params); err != nil {
		return errors.Join(errors.Wrap(err, "error during exec"), errs.SinkWrite)
	}
	return nil
}
