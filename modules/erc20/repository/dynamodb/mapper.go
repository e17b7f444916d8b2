package dynamodb

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/google/uuid"
)

var transferNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:erc20-indexer:transfer"))

// itemKey returns a UUIDv5 of the natural key of the transfer.
func itemKey(record entity.Transfer) string {
	return uuid.NewSHA1(transferNamespace, []byte(record.Key())).String()
}

func mapTransferToItem(record entity.Transfer) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: itemKey(record)},
		"ts":         &types.AttributeValueMemberN{Value: strconv.FormatInt(record.Timestamp.UnixMilli(), 10)},
		"block":      &types.AttributeValueMemberN{Value: strconv.FormatUint(record.BlockNumber, 10)},
		"tx_hash":    &types.AttributeValueMemberS{Value: record.TxHash.Hex()},
		"log_index":  &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(record.LogIndex), 10)},
		"from":       &types.AttributeValueMemberS{Value: strings.ToLower(record.From.Hex())},
		"to":         &types.AttributeValueMemberS{Value: strings.ToLower(record.To.Hex())},
		"value":      &types.AttributeValueMemberS{Value: record.Value.String()},
		"raw_value":  &types.AttributeValueMemberS{Value: record.RawValue.Dec()},
		"category":   &types.AttributeValueMemberS{Value: record.Category.String()},
	}
}
