package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gofiber/fiber/v2"
)

type getCheckpointResult struct {
	Network     string `json:"network"`
	BlockNumber uint64 `json:"blockNumber"`
}

type getCheckpointResponse = common.HttpResponse[getCheckpointResult]

func (h *HttpHandler) GetCheckpoint(ctx *fiber.Ctx) (err error) {
	blockNumber, err := h.checkpoint.Load(ctx.UserContext())
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicNotFound("no block has been committed yet")
		}
		return errors.Wrap(err, "error during load checkpoint")
	}

	resp := getCheckpointResponse{
		Result: &getCheckpointResult{
			Network:     h.network.String(),
			BlockNumber: blockNumber,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
