package erc20

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/indexer"
	"github.com/gaze-network/erc20-indexer/core/types"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink deduplicates records on their natural key.
type fakeSink struct {
	mu      sync.Mutex
	records map[string]entity.Transfer
	writes  int
	err     error
}

func newFakeSink() *fakeSink {
	return &fakeSink{records: make(map[string]entity.Transfer)}
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Write(_ context.Context, _ string, record entity.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.records[record.Key()] = record
	return nil
}

type fakeFlushingSink struct {
	*fakeSink
	flushed [][2]uint64
	err     error
}

func (s *fakeFlushingSink) Flush(_ context.Context, from, to uint64) error {
	if s.err != nil {
		return s.err
	}
	s.flushed = append(s.flushed, [2]uint64{from, to})
	return nil
}

var (
	oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	alice    = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newTestProcessor(t *testing.T, sink *fakeSink) *Processor {
	t.Helper()
	classifier := newTestClassifier(t, []string{treasuryAddress}, []string{selfRoutingAddress})
	return NewProcessor(classifier.registry, classifier, sink, "ronin", nil, nil)
}

func newTestBlock(number uint64, logs ...*types.Log) *types.Block {
	txHash := common.BigToHash(new(big.Int).SetUint64(number))
	for i, log := range logs {
		log.BlockNumber = number
		log.TxHash = txHash
		log.Index = uint(i)
	}
	to := common.HexToAddress(axsAddress)
	return &types.Block{
		Header: types.BlockHeader{
			Number:    number,
			Timestamp: time.Unix(1_690_848_000, 0).UTC(),
		},
		Transactions: []*types.Transaction{
			{Hash: txHash, To: &to, Logs: logs},
		},
	}
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes_and_classifies", func(t *testing.T) {
		sink := newFakeSink()
		processor := newTestProcessor(t, sink)

		removed := newTransferLog(axsAddress, alice, bob, big.NewInt(5))
		removed.Removed = true
		approval := newTransferLog(axsAddress, alice, bob, big.NewInt(5))
		approval.Topics[0] = common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925")

		block := newTestBlock(17_000_001,
			newTransferLog(wethAddress, alice, bob, oneEther),
			newTransferLog(slpAddress, alice, common.HexToAddress(treasuryAddress), oneEther),
			newTransferLog(axsAddress, alice, common.HexToAddress(selfRoutingAddress), big.NewInt(5)),
			newTransferLog("0x0000000000000000000000000000000000000bad", alice, bob, big.NewInt(5)),
			removed,
			approval,
		)
		require.NoError(t, processor.Process(ctx, block))
		require.Len(t, sink.records, 2)

		txHash := block.Transactions[0].Hash
		weth, ok := sink.records[entity.Transfer{BlockNumber: 17_000_001, TxHash: txHash, LogIndex: 0}.Key()]
		require.True(t, ok)
		assert.Equal(t, "WETH", weth.Symbol)
		assert.Equal(t, "1", weth.Value.String())
		assert.Equal(t, oneEther.String(), weth.RawValue.Dec())
		assert.Equal(t, entity.CategoryGenericTransfer, weth.Category)
		assert.Equal(t, alice, weth.From)
		assert.Equal(t, bob, weth.To)
		assert.Equal(t, block.Header.Timestamp, weth.Timestamp)

		slp, ok := sink.records[entity.Transfer{BlockNumber: 17_000_001, TxHash: txHash, LogIndex: 1}.Key()]
		require.True(t, ok)
		assert.Equal(t, "1000000000000000000", slp.Value.String())
		assert.Equal(t, entity.CategoryTreasuryDeposit, slp.Category)
	})

	t.Run("value_above_128_bits_is_preserved", func(t *testing.T) {
		sink := newFakeSink()
		processor := newTestProcessor(t, sink)
		value, ok := new(big.Int).SetString("340282366920938463463374607431768211457", 10)
		require.True(t, ok)

		require.NoError(t, processor.Process(ctx, newTestBlock(1, newTransferLog(slpAddress, alice, bob, value))))
		require.Len(t, sink.records, 1)
		for _, record := range sink.records {
			assert.Equal(t, value.String(), record.RawValue.Dec())
			assert.Equal(t, value.String(), record.Value.String())
		}
	})

	t.Run("reprocessing_is_idempotent", func(t *testing.T) {
		sink := newFakeSink()
		processor := newTestProcessor(t, sink)
		block := newTestBlock(42,
			newTransferLog(wethAddress, alice, bob, oneEther),
			newTransferLog(axsAddress, bob, alice, big.NewInt(3)),
		)

		require.NoError(t, processor.Process(ctx, block))
		first := make(map[string]entity.Transfer, len(sink.records))
		for k, v := range sink.records {
			first[k] = v
		}
		require.NoError(t, processor.Process(ctx, block))

		assert.Equal(t, 4, sink.writes)
		assert.Equal(t, first, sink.records)
	})

	t.Run("malformed_log_fails_block", func(t *testing.T) {
		sink := newFakeSink()
		processor := newTestProcessor(t, sink)
		malformed := newTransferLog(axsAddress, alice, bob, big.NewInt(1))
		malformed.Data = malformed.Data[:16]

		err := processor.Process(ctx, newTestBlock(7, malformed))
		assert.ErrorIs(t, err, errs.MalformedResponse)
		assert.Empty(t, sink.records)
	})

	t.Run("malformed_log_of_unwatched_contract_is_ignored", func(t *testing.T) {
		sink := newFakeSink()
		processor := newTestProcessor(t, sink)
		erc721 := newTransferLog("0x0000000000000000000000000000000000000bad", alice, bob, big.NewInt(1))
		erc721.Topics = append(erc721.Topics, common.BigToHash(big.NewInt(1)))

		assert.NoError(t, processor.Process(ctx, newTestBlock(7, erc721)))
	})

	t.Run("sink_failure", func(t *testing.T) {
		sink := newFakeSink()
		sink.err = errors.New("connection reset")
		processor := newTestProcessor(t, sink)

		err := processor.Process(ctx, newTestBlock(7, newTransferLog(axsAddress, alice, bob, big.NewInt(1))))
		assert.ErrorIs(t, err, errs.SinkWrite)
	})
}

func TestProcessorFlush(t *testing.T) {
	ctx := context.Background()
	blockRange := indexer.BlockRange{Start: 101, End: 150}

	t.Run("sink_without_buffer", func(t *testing.T) {
		processor := newTestProcessor(t, newFakeSink())
		assert.NoError(t, processor.Flush(ctx, blockRange))
	})

	t.Run("buffered_sink", func(t *testing.T) {
		sink := &fakeFlushingSink{fakeSink: newFakeSink()}
		classifier := newTestClassifier(t, nil, nil)
		processor := NewProcessor(classifier.registry, classifier, sink, "ronin", nil, nil)

		require.NoError(t, processor.Flush(ctx, blockRange))
		assert.Equal(t, [][2]uint64{{101, 150}}, sink.flushed)

		sink.err = errors.New("upload failed")
		assert.ErrorIs(t, processor.Flush(ctx, blockRange), errs.SinkWrite)
	})
}

func TestProcessorCommittedAndShutdown(t *testing.T) {
	ctx := context.Background()
	var closed []string
	classifier := newTestClassifier(t, nil, nil)
	processor := NewProcessor(classifier.registry, classifier, newFakeSink(), "ronin", nil, []func(context.Context) error{
		func(context.Context) error { closed = append(closed, "postgres"); return nil },
		func(context.Context) error { closed = append(closed, "nats"); return errors.New("drain timeout") },
	})

	require.NoError(t, processor.Process(ctx, newTestBlock(1, newTransferLog(axsAddress, alice, bob, big.NewInt(1)))))
	assert.Equal(t, uint64(1), processor.written.Load())
	processor.Committed(ctx, indexer.BlockRange{Start: 1, End: 1})
	assert.Equal(t, uint64(0), processor.written.Load())

	// a failed attempt's writes are not reported by the retry
	require.NoError(t, processor.Process(ctx, newTestBlock(2, newTransferLog(axsAddress, alice, bob, big.NewInt(1)))))
	processor.StartBatch(ctx, indexer.BlockRange{Start: 2, End: 3})
	require.NoError(t, processor.Process(ctx, newTestBlock(3, newTransferLog(axsAddress, alice, bob, big.NewInt(1)))))
	assert.Equal(t, uint64(1), processor.written.Load())

	err := processor.Shutdown(ctx)
	assert.Error(t, err)
	assert.Equal(t, []string{"postgres", "nats"}, closed)
}
