package erc20

import (
	"strings"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/types"
	"github.com/holiman/uint256"
)

const transferEventABI = `[{
	"anonymous": false,
	"type": "event",
	"name": "Transfer",
	"inputs": [
		{"indexed": true, "name": "from", "type": "address"},
		{"indexed": true, "name": "to", "type": "address"},
		{"indexed": false, "name": "value", "type": "uint256"}
	]
}]`

// TransferTopic is the keccak256 hash of `Transfer(address,address,uint256)`.
var TransferTopic = utils.Must(abi.JSON(strings.NewReader(transferEventABI))).Events["Transfer"].ID

// DecodedTransfer holds the arguments of a Transfer event.
type DecodedTransfer struct {
	From     common.Address
	To       common.Address
	RawValue *uint256.Int
}

// IsTransfer reports whether the log carries the Transfer topic.
func IsTransfer(log *types.Log) bool {
	return len(log.Topics) > 0 && log.Topics[0] == TransferTopic
}

// DecodeTransfer decodes a Transfer log. The log must have exactly 3 topics and 32 bytes of data,
// other shapes (e.g. ERC721 transfers with an indexed token id) are rejected with errs.MalformedResponse.
func DecodeTransfer(log *types.Log) (DecodedTransfer, error) {
	if len(log.Topics) != 3 {
		return DecodedTransfer{}, errors.Wrapf(errs.MalformedResponse, "transfer log %s:%d has %d topics, expected 3", log.TxHash, log.Index, len(log.Topics))
	}
	if log.Topics[0] != TransferTopic {
		return DecodedTransfer{}, errors.Wrapf(errs.MalformedResponse, "log %s:%d is not a transfer, topic %s", log.TxHash, log.Index, log.Topics[0])
	}
	if len(log.Data) != 32 {
		return DecodedTransfer{}, errors.Wrapf(errs.MalformedResponse, "transfer log %s:%d has %d bytes of data, expected 32", log.TxHash, log.Index, len(log.Data))
	}

	return DecodedTransfer{
		From:     common.BytesToAddress(log.Topics[1].Bytes()),
		To:       common.BytesToAddress(log.Topics[2].Bytes()),
		RawValue: new(uint256.Int).SetBytes32(log.Data),
	}, nil
}
