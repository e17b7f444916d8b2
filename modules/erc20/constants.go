package erc20

import "github.com/gaze-network/erc20-indexer/common"

const (
	Version   = "v0.1.0"
	DBVersion = 1

	DefaultGenesisBlock    = 17_000_000
	DefaultConfirmationLag = 200
	DefaultBatchSize       = 150
)

// startingBlock is the default genesis checkpoint per network.
var startingBlock = map[common.Network]uint64{
	common.NetworkRonin: DefaultGenesisBlock,
}
