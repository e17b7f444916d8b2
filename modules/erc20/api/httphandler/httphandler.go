package httphandler

import (
	"context"

	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

// CheckpointReader returns the last committed block.
type CheckpointReader interface {
	Load(ctx context.Context) (uint64, error)
}

// ContractLister returns the watch-list.
type ContractLister interface {
	Contracts() []entity.ContractInfo
}

type HttpHandler struct {
	checkpoint CheckpointReader
	contracts  ContractLister
	network    common.Network
}

func New(network common.Network, checkpoint CheckpointReader, contracts ContractLister) *HttpHandler {
	return &HttpHandler{
		checkpoint: checkpoint,
		contracts:  contracts,
		network:    network,
	}
}
