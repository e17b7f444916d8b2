package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runIndexer(t *testing.T, i *Indexer) <-chan error {
	t.Helper()
	result := make(chan error, 1)
	go func() {
		result <- i.Run(context.Background())
	}()
	return result
}

func testConfig() Config {
	return Config{
		ConfirmationLag:   50,
		BatchSize:         50,
		Workers:           4,
		PollInterval:      10 * time.Millisecond,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	}
}

func TestIndexerRun(t *testing.T) {
	t.Run("catches_up_to_safe_head", func(t *testing.T) {
		start := uint64(100)
		ds := newFakeDatasource(260)
		proc := newFakeProcessor()
		cp := &fakeCheckpoint{value: &start}
		i := New(proc, ds, cp, testConfig())

		result := runIndexer(t, i)
		assert.Eventually(t, func() bool {
			v, _ := cp.Value()
			return v == 210
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, i.ShutdownWithTimeout(time.Second))
		require.NoError(t, <-result)

		assert.Equal(t, []uint64{150, 200, 210}, cp.commits)
		assert.Equal(t, []BlockRange{{101, 150}, {151, 200}, {201, 210}}, proc.committed)
		assert.Len(t, proc.processed, 110)
		assert.True(t, proc.shutdown)
	})

	t.Run("starts_after_genesis", func(t *testing.T) {
		ds := newFakeDatasource(1100)
		proc := newFakeProcessor()
		cp := &fakeCheckpoint{}
		conf := testConfig()
		conf.GenesisBlock = 1000
		i := New(proc, ds, cp, conf)

		result := runIndexer(t, i)
		assert.Eventually(t, func() bool {
			v, _ := cp.Value()
			return v == 1050
		}, time.Second, 5*time.Millisecond)
		require.NoError(t, i.ShutdownWithTimeout(time.Second))
		require.NoError(t, <-result)

		assert.Equal(t, BlockRange{1001, 1050}, proc.committed[0])
		assert.NotContains(t, proc.processed, uint64(1000))
	})

	t.Run("retries_failed_batch", func(t *testing.T) {
		start := uint64(100)
		ds := newFakeDatasource(200)
		ds.failures[120] = 3
		proc := newFakeProcessor()
		cp := &fakeCheckpoint{value: &start}
		i := New(proc, ds, cp, testConfig())

		result := runIndexer(t, i)
		assert.Eventually(t, func() bool {
			v, _ := cp.Value()
			return v == 150
		}, time.Second, 5*time.Millisecond)
		require.NoError(t, i.ShutdownWithTimeout(time.Second))
		require.NoError(t, <-result)

		assert.Equal(t, []uint64{150}, cp.commits)
		assert.Equal(t, 4, ds.fetched[120])
	})

	t.Run("stops_on_configuration_error", func(t *testing.T) {
		ds := newFakeDatasource(200)
		ds.headErr = errors.Join(errors.New("chain id mismatch"), errs.Configuration)
		i := New(newFakeProcessor(), ds, &fakeCheckpoint{}, testConfig())

		err := i.Run(context.Background())
		assert.ErrorIs(t, err, errs.Configuration)
	})

	t.Run("shutdown_waits_for_in_flight_batch", func(t *testing.T) {
		start := uint64(100)
		ds := newFakeDatasource(260)
		release := ds.hold(120)
		proc := newFakeProcessor()
		cp := &fakeCheckpoint{value: &start}
		i := New(proc, ds, cp, testConfig())

		result := runIndexer(t, i)
		select {
		case <-ds.entered:
		case <-time.After(time.Second):
			t.Fatal("block 120 was never fetched")
		}

		shutdown := make(chan error, 1)
		go func() {
			shutdown <- i.ShutdownWithTimeout(5 * time.Second)
		}()
		assert.Eventually(t, func() bool {
			select {
			case <-i.quit:
				return true
			default:
				return false
			}
		}, time.Second, time.Millisecond)
		release()

		require.NoError(t, <-shutdown)
		require.NoError(t, <-result)

		assert.Equal(t, []uint64{150}, cp.commits)
		assert.Equal(t, []BlockRange{{101, 150}}, proc.committed)
		assert.Equal(t, []BlockRange{{101, 150}}, proc.Started())
		assert.Len(t, proc.processed, 50)
		assert.NotContains(t, ds.fetched, uint64(151))
		assert.True(t, proc.shutdown)
	})

	t.Run("shutdown_before_run", func(t *testing.T) {
		i := New(newFakeProcessor(), newFakeDatasource(0), &fakeCheckpoint{}, testConfig())
		assert.NoError(t, i.ShutdownWithTimeout(time.Second))
	})
}
