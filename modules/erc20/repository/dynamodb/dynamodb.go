package dynamodb

import (
	"context"
	"sync"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
)

const (
	DefaultCheckpointTable = "erc20_checkpoint"

	keyAttribute      = "key"
	checkpointItemKey = "current_block"

	readCapacityUnits  = 10
	writeCapacityUnits = 5
	tableCreateTimeout = 2 * time.Minute
)

var (
	_ datagateway.SinkWriter            = (*Repository)(nil)
	_ datagateway.CheckpointDataGateway = (*Repository)(nil)
)

// Client is the subset of the DynamoDB API used by the repository.
type Client interface {
	dynamodb.DescribeTableAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Repository writes transfers to one table per token symbol and keeps the checkpoint as a single item.
type Repository struct {
	client          Client
	tablePrefix     string
	checkpointTable string

	mu     sync.Mutex
	tables map[string]struct{} // tables known to exist
}

func New(ctx context.Context, conf config.DynamoDBConfig) (*Repository, error) {
	opts := make([]func(*awsconfig.LoadOptions) error, 0)
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "can't load aws config")
	}
	client := dynamodb.NewFromConfig(awsConf, func(o *dynamodb.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	})
	return NewRepository(client, conf), nil
}

func NewRepository(client Client, conf config.DynamoDBConfig) *Repository {
	return &Repository{
		client:          client,
		tablePrefix:     conf.TablePrefix,
		checkpointTable: utils.Default(conf.CheckpointTable, DefaultCheckpointTable),
		tables:          make(map[string]struct{}),
	}
}

func (r *Repository) Name() string {
	return "dynamodb"
}

func (r *Repository) tableName(symbol string) string {
	return r.tablePrefix + symbol
}

// ensureTable creates the table with a string hash key if it doesn't exist yet and waits until it is active.
func (r *Repository) ensureTable(ctx context.Context, table string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[table]; ok {
		return nil
	}

	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		r.tables[table] = struct{}{}
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return errors.Wrapf(err, "can't describe table %s", table)
	}

	logger.InfoContext(ctx, "Creating DynamoDB table", slogx.String("table", table))
	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttribute), KeyType: types.KeyTypeHash},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(readCapacityUnits),
			WriteCapacityUnits: aws.Int64(writeCapacityUnits),
		},
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return errors.Wrapf(err, "can't create table %s", table)
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableCreateTimeout); err != nil {
		return errors.Wrapf(err, "table %s is not active", table)
	}
	r.tables[table] = struct{}{}
	return nil
}

func sinkError(err error, format string, args ...any) error {
	return errors.Join(errors.Wrapf(err, format, args...), errs.SinkWrite)
}
