package erc20

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiSink(t *testing.T) {
	ctx := context.Background()
	record := entity.Transfer{BlockNumber: 1, LogIndex: 2, Symbol: "AXS"}

	t.Run("single_sink_is_not_wrapped", func(t *testing.T) {
		sink := newFakeSink()
		assert.Same(t, sink, newMultiSink(sink))
	})

	t.Run("writes_to_every_sink", func(t *testing.T) {
		first, second := newFakeSink(), &fakeFlushingSink{fakeSink: newFakeSink()}
		sink := newMultiSink(first, second)
		assert.Equal(t, "fake+fake", sink.Name())

		require.NoError(t, sink.Write(ctx, "AXS", record))
		assert.Contains(t, first.records, record.Key())
		assert.Contains(t, second.records, record.Key())

		flusher, ok := sink.(datagateway.BatchFlusher)
		require.True(t, ok)
		require.NoError(t, flusher.Flush(ctx, 1, 10))
		assert.Equal(t, [][2]uint64{{1, 10}}, second.flushed)
	})

	t.Run("fails_if_any_sink_fails", func(t *testing.T) {
		failing := newFakeSink()
		failing.err = errors.New("timeout")
		sink := newMultiSink(newFakeSink(), failing)
		assert.Error(t, sink.Write(ctx, "AXS", record))
	})
}
