package natsstream

import (
	"strings"

	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

type transferMessage struct {
	Timestamp   int64  `json:"timestamp"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"txHash"`
	LogIndex    uint   `json:"logIndex"`
	Contract    string `json:"contract"`
	Symbol      string `json:"symbol"`
	From        string `json:"from"`
	To          string `json:"to"`
	RawValue    string `json:"rawValue"`
	Value       string `json:"value"`
	Category    string `json:"category"`
}

func mapTransferToMessage(record entity.Transfer) transferMessage {
	return transferMessage{
		Timestamp:   record.Timestamp.UnixMilli(),
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash.Hex(),
		LogIndex:    record.LogIndex,
		Contract:    strings.ToLower(record.Contract.Hex()),
		Symbol:      record.Symbol,
		From:        strings.ToLower(record.From.Hex()),
		To:          strings.ToLower(record.To.Hex()),
		RawValue:    record.RawValue.Dec(),
		Value:       record.Value.String(),
		Category:    record.Category.String(),
	}
}
