package postgres

import (
	"math/big"
	"strings"
	"time"

	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gaze-network/erc20-indexer/modules/erc20/repository/postgres/gen"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func numericFromUint256(src *uint256.Int) pgtype.Numeric {
	if src == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: src.ToBig(), Exp: 0, Valid: true}
}

func numericFromDecimal(src decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(src.Coefficient()), Exp: src.Exponent(), Valid: true}
}

func mapTransferTypeToParams(src entity.Transfer) gen.CreateTransferParams {
	return gen.CreateTransferParams{
		BlockNumber: int64(src.BlockNumber),
		TxHash:      src.TxHash.Hex(),
		LogIndex:    int32(src.LogIndex),
		Timestamp:   pgtype.Timestamptz{Time: src.Timestamp.UTC(), Valid: true},
		Contract:    strings.ToLower(src.Contract.Hex()),
		Symbol:      src.Symbol,
		FromAddress: strings.ToLower(src.From.Hex()),
		ToAddress:   strings.ToLower(src.To.Hex()),
		RawValue:    numericFromUint256(src.RawValue),
		Value:       numericFromDecimal(src.Value),
		Category:    src.Category.String(),
	}
}

func mapIndexerStateModelToType(src gen.Erc20IndexerState) entity.IndexerState {
	var createdAt time.Time
	if src.CreatedAt.Valid {
		createdAt = src.CreatedAt.Time.UTC()
	}
	return entity.IndexerState{
		DBVersion: src.DbVersion,
		Network:   common.Network(src.Network),
		CreatedAt: createdAt,
	}
}

func mapIndexerStateTypeToParams(src entity.IndexerState) gen.SetIndexerStateParams {
	return gen.SetIndexerStateParams{
		DbVersion: src.DBVersion,
		Network:   src.Network.String(),
	}
}
