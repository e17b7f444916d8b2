package s3parquet

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/erc20-indexer/pkg/parquetutils"
	"github.com/samber/lo"
)

var (
	_ datagateway.SinkWriter   = (*Repository)(nil)
	_ datagateway.BatchFlusher = (*Repository)(nil)
)

// Uploader uploads an object. [github.com/aws/aws-sdk-go-v2/feature/s3/manager.Uploader] satisfies it.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Repository archives the transfers of each batch as one parquet object per symbol.
// Objects are named after the batch range, so a retried batch replaces its own objects.
type Repository struct {
	uploader Uploader
	bucket   string
	prefix   string

	mu      sync.Mutex
	pending map[string]map[string]transferRow // symbol -> natural key -> row
}

func New(ctx context.Context, conf config.S3ParquetConfig) (*Repository, error) {
	if conf.Bucket == "" {
		return nil, errors.Wrap(errs.Configuration, "s3parquet bucket is required")
	}
	opts := make([]func(*awsconfig.LoadOptions) error, 0)
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "can't load aws user config")
	}
	uploader := manager.NewUploader(s3.NewFromConfig(sdkConfig))
	return NewRepository(uploader, conf.Bucket, conf.Prefix), nil
}

func NewRepository(uploader Uploader, bucket, prefix string) *Repository {
	return &Repository{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		pending:  make(map[string]map[string]transferRow),
	}
}

func (r *Repository) Name() string {
	return "s3parquet"
}

// Write buffers the transfer until the batch is flushed.
func (r *Repository) Write(_ context.Context, symbol string, record entity.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, ok := r.pending[symbol]
	if !ok {
		rows = make(map[string]transferRow)
		r.pending[symbol] = rows
	}
	rows[record.Key()] = mapTransferToRow(record)
	return nil
}

// Flush uploads the buffered transfers of the batch [from, to]. Rows outside the range are
// leftovers of a failed attempt over a different range and are dropped. The buffer is kept on failure.
func (r *Repository) Flush(ctx context.Context, from, to uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbols := lo.Keys(r.pending)
	slices.Sort(symbols)
	for _, symbol := range symbols {
		rows := lo.Filter(lo.Values(r.pending[symbol]), func(row transferRow, _ int) bool {
			return inRange(row, from, to)
		})
		if len(rows) == 0 {
			delete(r.pending, symbol)
			continue
		}
		slices.SortFunc(rows, compareRows)

		data, err := parquetutils.WriteAll(rows)
		if err != nil {
			return errors.Join(errors.Wrapf(err, "can't encode %s transfers", symbol), errs.SinkWrite)
		}
		key := r.objectKey(symbol, from, to)
		if _, err := r.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(r.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/vnd.apache.parquet"),
		}); err != nil {
			return errors.Join(errors.Wrapf(err, "can't upload s3://%s/%s", r.bucket, key), errs.SinkWrite)
		}
		logger.DebugContext(ctx, "Uploaded transfers archive",
			slogx.String("key", key),
			slogx.Int("transfers", len(rows)),
		)
		delete(r.pending, symbol)
	}
	return nil
}

func inRange(row transferRow, from, to uint64) bool {
	block := uint64(row.BlockNumber)
	return block >= from && block <= to
}

func (r *Repository) objectKey(symbol string, from, to uint64) string {
	return path.Join(r.prefix, symbol, fmt.Sprintf("%012d-%012d.parquet", from, to))
}
