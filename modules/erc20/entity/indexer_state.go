package entity

import (
	"time"

	"github.com/gaze-network/erc20-indexer/common"
)

type IndexerState struct {
	DBVersion int32
	Network   common.Network
	CreatedAt time.Time
}
