package natsstream

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gaze-network/erc20-indexer/pkg/bufferpool"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/nats-io/nats.go"
)

const (
	DefaultStream        = "ERC20_TRANSFERS"
	DefaultSubjectPrefix = "erc20.transfers"
)

var _ datagateway.SinkWriter = (*Repository)(nil)

// Publisher publishes a message to a JetStream subject. [nats.JetStreamContext] satisfies it.
type Publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Repository publishes every transfer to `<prefix>.<symbol>`.
// The natural key is used as the message id, so JetStream drops duplicates of a retried batch.
type Repository struct {
	publisher Publisher
	prefix    string
}

// New connects to NATS and ensures the stream exists. The returned connection must be drained by the caller.
func New(ctx context.Context, conf config.NATSConfig) (*Repository, *nats.Conn, error) {
	if conf.URL == "" {
		return nil, nil, errors.Wrap(errs.Configuration, "nats url is required")
	}
	stream := conf.Stream
	if stream == "" {
		stream = DefaultStream
	}
	prefix := conf.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(conf.URL,
		nats.Name("erc20-indexer"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WarnContext(ctx, "Disconnected from NATS", slogx.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.InfoContext(ctx, "Reconnected to NATS", slogx.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "can't connect to nats")
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "can't create jetstream context")
	}
	if err := ensureStream(ctx, js, stream, prefix); err != nil {
		conn.Close()
		return nil, nil, errors.WithStack(err)
	}
	return NewRepository(js, prefix), conn, nil
}

func ensureStream(ctx context.Context, js nats.JetStreamManager, stream, prefix string) error {
	_, err := js.StreamInfo(stream, nats.Context(ctx))
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return errors.Wrapf(err, "can't get stream info %s", stream)
	}
	if _, err := js.AddStream(&nats.StreamConfig{
		Name:       stream,
		Subjects:   []string{prefix + ".>"},
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		Duplicates: 24 * time.Hour,
	}, nats.Context(ctx)); err != nil {
		return errors.Wrapf(err, "can't create stream %s", stream)
	}
	logger.InfoContext(ctx, "Created NATS stream", slogx.String("stream", stream))
	return nil
}

func NewRepository(publisher Publisher, prefix string) *Repository {
	return &Repository{
		publisher: publisher,
		prefix:    strings.TrimSuffix(prefix, "."),
	}
}

func (r *Repository) Name() string {
	return "nats"
}

func (r *Repository) Write(ctx context.Context, symbol string, record entity.Transfer) error {
	data, err := bufferpool.MarshalJSON(mapTransferToMessage(record))
	if err != nil {
		return errors.Join(errors.Wrap(err, "can't encode transfer"), errs.SinkWrite)
	}
	if _, err := r.publisher.Publish(r.subject(symbol), data, nats.MsgId(record.Key()), nats.Context(ctx)); err != nil {
		return errors.Join(errors.Wrapf(err, "can't publish transfer %s", record.Key()), errs.SinkWrite)
	}
	return nil
}

func (r *Repository) subject(symbol string) string {
	return r.prefix + "." + symbol
}
