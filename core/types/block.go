package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
)

type BlockHeader struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
}

// Block is a block enriched with the receipt logs of the transactions selected by the datasource.
// Transactions that were not selected are not present.
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

type Transaction struct {
	Hash  common.Hash
	Index uint
	To    *common.Address
	Logs  []*Log
}

// Log is a receipt log reduced to the fields needed for event decoding.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	Index       uint
	Removed     bool
}

func ParseHeader(src *ethtypes.Block) BlockHeader {
	return BlockHeader{
		Number:     src.NumberU64(),
		Hash:       src.Hash(),
		ParentHash: src.ParentHash(),
		Timestamp:  time.Unix(int64(src.Time()), 0).UTC(),
	}
}

func ParseLog(src *ethtypes.Log) *Log {
	return &Log{
		Address:     src.Address,
		Topics:      src.Topics,
		Data:        src.Data,
		BlockNumber: src.BlockNumber,
		TxHash:      src.TxHash,
		TxIndex:     src.TxIndex,
		Index:       src.Index,
		Removed:     src.Removed,
	}
}

func ParseReceipt(tx *ethtypes.Transaction, index int, receipt *ethtypes.Receipt) *Transaction {
	return &Transaction{
		Hash:  tx.Hash(),
		Index: uint(index),
		To:    tx.To(),
		Logs:  lo.Map(receipt.Logs, func(item *ethtypes.Log, _ int) *Log { return ParseLog(item) }),
	}
}
