package influxdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurement = "value"

var _ datagateway.SinkWriter = (*Repository)(nil)

// PointWriter writes a point into a bucket.
type PointWriter interface {
	WritePoint(ctx context.Context, bucket string, point *write.Point) error
}

type clientWriter struct {
	client influxdb2.Client
	org    string
}

func (w *clientWriter) WritePoint(ctx context.Context, bucket string, point *write.Point) error {
	return errors.WithStack(w.client.WriteAPIBlocking(w.org, bucket).WritePoint(ctx, point))
}

// Repository writes transfers as points of the `value` measurement into a bucket named after the token symbol.
type Repository struct {
	writer PointWriter
}

func New(conf config.InfluxDBConfig) (*Repository, influxdb2.Client, error) {
	if conf.URL == "" {
		return nil, nil, errors.Wrap(errs.Configuration, "influxdb url is required")
	}
	if conf.Org == "" {
		return nil, nil, errors.Wrap(errs.Configuration, "influxdb org is required")
	}
	client := influxdb2.NewClientWithOptions(conf.URL, conf.Token, influxdb2.DefaultOptions().SetPrecision(time.Millisecond))
	return NewRepository(&clientWriter{client: client, org: conf.Org}), client, nil
}

func NewRepository(writer PointWriter) *Repository {
	return &Repository{writer: writer}
}

func (r *Repository) Name() string {
	return "influxdb"
}

// Write stores the transfer as a point. The tag set includes the natural key, so writing
// the same transfer again replaces the same point.
func (r *Repository) Write(ctx context.Context, symbol string, record entity.Transfer) error {
	if err := r.writer.WritePoint(ctx, symbol, mapTransferToPoint(record)); err != nil {
		return errors.Join(errors.Wrapf(err, "can't write point %s to bucket %s", record.Key(), symbol), errs.SinkWrite)
	}
	return nil
}

func mapTransferToPoint(record entity.Transfer) *write.Point {
	value, _ := record.Value.Float64()
	return influxdb2.NewPoint(measurement,
		map[string]string{
			"from":      strings.ToLower(record.From.Hex()),
			"to":        strings.ToLower(record.To.Hex()),
			"tx_hash":   record.TxHash.Hex(),
			"log_index": strconv.FormatUint(uint64(record.LogIndex), 10),
			"category":  record.Category.String(),
		},
		map[string]interface{}{
			"value":     value,
			"raw_value": record.RawValue.Dec(),
		},
		record.Timestamp,
	)
}
