package natsstream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/holiman/uint256"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
	opts    int
}

type fakePublisher struct {
	messages []published
	err      error
}

func (p *fakePublisher) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.messages = append(p.messages, published{subject: subj, data: data, opts: len(opts)})
	return &nats.PubAck{Stream: DefaultStream}, nil
}

func TestWrite(t *testing.T) {
	raw, err := uint256.FromDecimal("340282366920938463463374607431768211457")
	require.NoError(t, err)
	record := entity.Transfer{
		Timestamp:   time.UnixMilli(1_690_848_000_000).UTC(),
		BlockNumber: 17_000_123,
		TxHash:      common.HexToHash("0x0abc"),
		LogIndex:    4,
		Contract:    common.HexToAddress("0xc99a6a985ed2cac1ef41640596c5a5f9f4e19ef5"),
		Symbol:      "WETH",
		From:        common.HexToAddress("0x01"),
		To:          common.HexToAddress("0x02"),
		RawValue:    raw,
		Value:       decimal.RequireFromString("340282366920938463463.374607431768211457"),
		Category:    entity.CategoryGenericTransfer,
	}

	t.Run("publishes_to_symbol_subject", func(t *testing.T) {
		publisher := &fakePublisher{}
		repo := NewRepository(publisher, DefaultSubjectPrefix+".")
		require.NoError(t, repo.Write(context.Background(), "WETH", record))

		require.Len(t, publisher.messages, 1)
		assert.Equal(t, "erc20.transfers.WETH", publisher.messages[0].subject)
		assert.Equal(t, 2, publisher.messages[0].opts)

		var msg transferMessage
		require.NoError(t, json.Unmarshal(publisher.messages[0].data, &msg))
		assert.Equal(t, uint64(17_000_123), msg.BlockNumber)
		assert.Equal(t, "340282366920938463463374607431768211457", msg.RawValue)
		assert.Equal(t, "340282366920938463463.374607431768211457", msg.Value)
		assert.Equal(t, "generic_transfer", msg.Category)
		assert.Equal(t, int64(1_690_848_000_000), msg.Timestamp)
		assert.NotContains(t, string(publisher.messages[0].data), "\n")
	})

	t.Run("publish_failure", func(t *testing.T) {
		publisher := &fakePublisher{err: errors.New("no responders")}
		err := NewRepository(publisher, DefaultSubjectPrefix).Write(context.Background(), "WETH", record)
		assert.ErrorIs(t, err, errs.SinkWrite)
	})
}

func TestNewRequiresURL(t *testing.T) {
	_, _, err := New(context.Background(), config.NATSConfig{})
	assert.ErrorIs(t, err, errs.Configuration)
}
