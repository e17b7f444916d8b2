package postgres

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNumericFromUint256(t *testing.T) {
	t.Run("normal", func(t *testing.T) {
		result := numericFromUint256(uint256.NewInt(1000))
		assert.True(t, result.Valid)
		assert.Equal(t, big.NewInt(1000), result.Int)
		assert.Equal(t, int32(0), result.Exp)
	})
	t.Run("above_uint128", func(t *testing.T) {
		value := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
		result := numericFromUint256(value)
		assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 200), result.Int)
	})
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, pgtype.Numeric{}, numericFromUint256(nil))
	})
}

func TestNumericFromDecimal(t *testing.T) {
	result := numericFromDecimal(decimal.RequireFromString("1.5"))
	assert.True(t, result.Valid)
	assert.Equal(t, big.NewInt(15), result.Int)
	assert.Equal(t, int32(-1), result.Exp)
}

func TestMapTransferTypeToParams(t *testing.T) {
	ts := time.Date(2023, 8, 1, 12, 0, 0, 0, time.UTC)
	record := entity.Transfer{
		Timestamp:   ts,
		BlockNumber: 17_000_001,
		TxHash:      common.HexToHash("0x01"),
		LogIndex:    3,
		Contract:    common.HexToAddress("0xc99a6A985eD2Cac1ef41640596C5A5f9F4E19Ef5"),
		Symbol:      "WETH",
		From:        common.HexToAddress("0x0000000000000000000000000000000000000001"),
		To:          common.HexToAddress("0xa99cacd1427f493a95b585a5c7989a08c86a616b"),
		RawValue:    uint256.NewInt(1_500_000_000_000_000_000),
		Value:       decimal.RequireFromString("1.5"),
		Category:    entity.CategoryTreasuryDeposit,
	}

	params := mapTransferTypeToParams(record)
	assert.Equal(t, int64(17_000_001), params.BlockNumber)
	assert.Equal(t, record.TxHash.Hex(), params.TxHash)
	assert.Equal(t, int32(3), params.LogIndex)
	assert.Equal(t, pgtype.Timestamptz{Time: ts, Valid: true}, params.Timestamp)
	assert.Equal(t, "0xc99a6a985ed2cac1ef41640596c5a5f9f4e19ef5", params.Contract)
	assert.Equal(t, "0xa99cacd1427f493a95b585a5c7989a08c86a616b", params.ToAddress)
	assert.Equal(t, "WETH", params.Symbol)
	assert.Equal(t, "treasury_deposit", params.Category)
	assert.Equal(t, big.NewInt(1_500_000_000_000_000_000), params.RawValue.Int)
}
