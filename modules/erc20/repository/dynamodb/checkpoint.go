package dynamodb

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
)

const checkpointAttribute = "block"

func (r *Repository) GetCheckpoint(ctx context.Context) (uint64, error) {
	if err := r.ensureTable(ctx, r.checkpointTable); err != nil {
		return 0, errors.WithStack(err)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.checkpointTable),
		Key:            checkpointKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, errors.Wrap(err, "can't get checkpoint item")
	}
	if len(out.Item) == 0 {
		return 0, errors.WithStack(errs.NotFound)
	}
	attr, ok := out.Item[checkpointAttribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.Wrapf(errs.Configuration, "checkpoint item has no numeric %q attribute", checkpointAttribute)
	}
	blockNumber, err := strconv.ParseUint(attr.Value, 10, 64)
	if err != nil {
		return 0, errors.Join(errors.Wrapf(err, "invalid checkpoint value %q", attr.Value), errs.Configuration)
	}
	return blockNumber, nil
}

func (r *Repository) SetCheckpoint(ctx context.Context, blockNumber uint64) error {
	if err := r.ensureTable(ctx, r.checkpointTable); err != nil {
		return errors.WithStack(err)
	}
	item := checkpointKey()
	item[checkpointAttribute] = &types.AttributeValueMemberN{Value: strconv.FormatUint(blockNumber, 10)}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.checkpointTable),
		Item:      item,
	}); err != nil {
		return errors.Wrap(err, "can't put checkpoint item")
	}
	return nil
}

func checkpointKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: checkpointItemKey},
	}
}
