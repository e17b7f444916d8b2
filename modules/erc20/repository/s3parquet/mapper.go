package s3parquet

import (
	"cmp"
	"strings"

	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

type transferRow struct {
	Key         string `parquet:"name=key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp   int64  `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	BlockNumber int64  `parquet:"name=block_number, type=INT64"`
	TxHash      string `parquet:"name=tx_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	LogIndex    int64  `parquet:"name=log_index, type=INT64"`
	Contract    string `parquet:"name=contract, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol      string `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	From        string `parquet:"name=from, type=BYTE_ARRAY, convertedtype=UTF8"`
	To          string `parquet:"name=to, type=BYTE_ARRAY, convertedtype=UTF8"`
	RawValue    string `parquet:"name=raw_value, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value       string `parquet:"name=value, type=BYTE_ARRAY, convertedtype=UTF8"`
	Category    string `parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func mapTransferToRow(record entity.Transfer) transferRow {
	return transferRow{
		Key:         record.Key(),
		Timestamp:   record.Timestamp.UnixMilli(),
		BlockNumber: int64(record.BlockNumber),
		TxHash:      record.TxHash.Hex(),
		LogIndex:    int64(record.LogIndex),
		Contract:    strings.ToLower(record.Contract.Hex()),
		Symbol:      record.Symbol,
		From:        strings.ToLower(record.From.Hex()),
		To:          strings.ToLower(record.To.Hex()),
		RawValue:    record.RawValue.Dec(),
		Value:       record.Value.String(),
		Category:    record.Category.String(),
	}
}

// compareRows orders rows by chain position.
func compareRows(a, b transferRow) int {
	if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
		return c
	}
	if c := strings.Compare(a.TxHash, b.TxHash); c != 0 {
		return c
	}
	return cmp.Compare(a.LogIndex, b.LogIndex)
}
