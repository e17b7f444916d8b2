package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

// Write puts the transfer into the table of its symbol. The item key is derived from the
// natural key, so writing the same transfer again overwrites the same item.
func (r *Repository) Write(ctx context.Context, symbol string, record entity.Transfer) error {
	table := r.tableName(symbol)
	if err := r.ensureTable(ctx, table); err != nil {
		return sinkError(err, "can't prepare table for %s", symbol)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      mapTransferToItem(record),
	}); err != nil {
		return sinkError(err, "can't put transfer %s", record.Key())
	}
	return nil
}
