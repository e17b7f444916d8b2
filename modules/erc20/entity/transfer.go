package entity

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type Category uint8

const (
	CategoryDiscarded Category = iota
	CategoryGenericTransfer
	CategoryTreasuryDeposit
)

var categoryNames = map[Category]string{
	CategoryDiscarded:       "discarded",
	CategoryGenericTransfer: "generic_transfer",
	CategoryTreasuryDeposit: "treasury_deposit",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ContractInfo is a watched ERC20 contract.
type ContractInfo struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// Transfer is a normalized ERC20 Transfer event ready to be written to a sink.
type Transfer struct {
	Timestamp   time.Time
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Contract    common.Address
	Symbol      string
	From        common.Address
	To          common.Address
	RawValue    *uint256.Int
	Value       decimal.Decimal
	Category    Category
}

// Key returns the natural key of the transfer, unique across the chain.
func (t Transfer) Key() string {
	return fmt.Sprintf("%d:%s:%d", t.BlockNumber, t.TxHash.Hex(), t.LogIndex)
}
