package indexer

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/types"
)

type fakeDatasource struct {
	mu       sync.Mutex
	head     uint64
	headErr  error
	failures map[uint64]int // remaining failures per block
	fetched  map[uint64]int
	gates    map[uint64]chan struct{} // FetchBlock waits for the gate to close
	entered  chan uint64
}

func newFakeDatasource(head uint64) *fakeDatasource {
	return &fakeDatasource{
		head:     head,
		failures: make(map[uint64]int),
		fetched:  make(map[uint64]int),
		gates:    make(map[uint64]chan struct{}),
		entered:  make(chan uint64, 16),
	}
}

// hold makes FetchBlock of the block wait until the returned func is called.
func (d *fakeDatasource) hold(number uint64) (release func()) {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gates[number] = gate
	d.mu.Unlock()
	return func() { close(gate) }
}

func (d *fakeDatasource) Name() string { return "fake" }

func (d *fakeDatasource) LatestBlockNumber(context.Context) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.head, d.headErr
}

func (d *fakeDatasource) FetchBlock(ctx context.Context, number uint64) (*types.Block, error) {
	d.mu.Lock()
	gate, held := d.gates[number]
	d.mu.Unlock()
	if held {
		d.entered <- number
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.fetched[number]++
	if d.failures[number] > 0 {
		d.failures[number]--
		return nil, errors.Join(errors.Errorf("node unavailable for block %d", number), errs.TransientNode)
	}
	return &types.Block{Header: types.BlockHeader{Number: number}}, nil
}

// fakeProcessor records processed blocks in a set keyed by block number, mimicking a deduplicating sink.
type fakeProcessor struct {
	mu        sync.Mutex
	processed map[uint64]int
	started   []BlockRange
	flushed   []BlockRange
	committed []BlockRange
	shutdown  bool
	flushErr  error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{processed: make(map[uint64]int)}
}

func (p *fakeProcessor) Name() string { return "fake" }

func (p *fakeProcessor) Process(_ context.Context, block *types.Block) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed[block.Header.Number]++
	return nil
}

func (p *fakeProcessor) StartBatch(_ context.Context, blockRange BlockRange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, blockRange)
}

func (p *fakeProcessor) Started() []BlockRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]BlockRange(nil), p.started...)
}

func (p *fakeProcessor) Flush(_ context.Context, blockRange BlockRange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.flushErr != nil {
		return p.flushErr
	}
	p.flushed = append(p.flushed, blockRange)
	return nil
}

func (p *fakeProcessor) Committed(_ context.Context, blockRange BlockRange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.committed = append(p.committed, blockRange)
}

func (p *fakeProcessor) Shutdown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	return nil
}

type fakeCheckpoint struct {
	mu      sync.Mutex
	value   *uint64
	commits []uint64
}

func (c *fakeCheckpoint) Load(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return 0, errors.WithStack(errs.NotFound)
	}
	return *c.value, nil
}

func (c *fakeCheckpoint) Commit(_ context.Context, blockNumber uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = &blockNumber
	c.commits = append(c.commits, blockNumber)
	return nil
}

func (c *fakeCheckpoint) Value() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return 0, false
	}
	return *c.value, true
}
