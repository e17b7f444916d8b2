package config

import (
	"time"

	"github.com/gaze-network/erc20-indexer/internal/postgres"
)

type Config struct {
	Contracts   []Contract `mapstructure:"contracts"`    // Watched ERC20 contracts.
	Treasury    []string   `mapstructure:"treasury"`     // Recipients whose incoming transfers are classified as treasury deposits.
	SelfRouting []string   `mapstructure:"self_routing"` // Recipients whose incoming transfers are internal routing and discarded.

	GenesisBlock    uint64        `mapstructure:"genesis_block"`    // Checkpoint used when none is persisted. Default is 17000000.
	ConfirmationLag uint64        `mapstructure:"confirmation_lag"` // Blocks behind the head that are not ingested yet. Default is 200.
	BatchSize       uint64        `mapstructure:"batch_size"`       // Maximum blocks per batch. Default is 150.
	Workers         int           `mapstructure:"workers"`          // Blocks fetched concurrently within a batch. Default is max(8, 2*GOMAXPROCS).
	ReceiptWorkers  int           `mapstructure:"receipt_workers"`  // Receipts fetched concurrently within a block. Default is max(4, GOMAXPROCS).
	PollInterval    time.Duration `mapstructure:"poll_interval"`    // Default is 15s.

	Sinks       []string `mapstructure:"sinks"`        // Sinks to write transfers to e.g. `postgres` | `influxdb` | `dynamodb` | `s3parquet` | `nats`
	Checkpoint  string   `mapstructure:"checkpoint"`   // Checkpoint store e.g. `file` | `postgres` | `dynamodb`. Default is `file`.
	APIHandlers []string `mapstructure:"api_handlers"` // List of API handlers to enable. (e.g. `http`)

	File      FileConfig      `mapstructure:"file"`
	Postgres  postgres.Config `mapstructure:"postgres"`
	InfluxDB  InfluxDBConfig  `mapstructure:"influxdb"`
	DynamoDB  DynamoDBConfig  `mapstructure:"dynamodb"`
	S3Parquet S3ParquetConfig `mapstructure:"s3parquet"`
	NATS      NATSConfig      `mapstructure:"nats"`
}

type Contract struct {
	Address  string `mapstructure:"address"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals"`
}

type FileConfig struct {
	Path string `mapstructure:"path"` // Default is `current_block`
}

type InfluxDBConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
	Org   string `mapstructure:"org"`
}

type DynamoDBConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`         // Custom endpoint e.g. DynamoDB local.
	TablePrefix     string `mapstructure:"table_prefix"`     // Transfer tables are named <prefix><symbol>.
	CheckpointTable string `mapstructure:"checkpoint_table"` // Default is `erc20_checkpoint`
}

type S3ParquetConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	Stream        string `mapstructure:"stream"`         // Default is `ERC20_TRANSFERS`
	SubjectPrefix string `mapstructure:"subject_prefix"` // Messages are published to <prefix>.<symbol>. Default is `erc20.transfers`
}
