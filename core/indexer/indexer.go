package indexer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/datasources"
	"github.com/gaze-network/erc20-indexer/internal/metrics"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
)

const (
	// DefaultPollInterval is the waiting time between polls once the indexer caught up with the safe head.
	DefaultPollInterval = 15 * time.Second

	DefaultBatchSize         = 150
	DefaultRetryInitialDelay = 2 * time.Second
	DefaultRetryMaxDelay     = time.Minute

	shutdownTimeout = 180 * time.Second
)

type Config struct {
	// GenesisBlock is the checkpoint used when none is persisted. Ingestion starts at GenesisBlock+1.
	GenesisBlock uint64

	// ConfirmationLag is the number of blocks behind the chain head that are not ingested yet.
	ConfirmationLag uint64

	// BatchSize is the maximum number of blocks per batch. Default is 150.
	BatchSize uint64

	// Workers is the maximum number of blocks fetched concurrently within a batch. Default is 8.
	Workers int

	// PollInterval is the waiting time between polls once caught up. Default is 15s.
	PollInterval time.Duration

	// RetryInitialDelay is the first backoff delay after a failed batch. Default is 2s.
	RetryInitialDelay time.Duration

	// RetryMaxDelay caps the exponential backoff. Default is 1m.
	RetryMaxDelay time.Duration
}

// Indexer drives sequential batches from the checkpoint to the safe chain head.
type Indexer struct {
	Processor  Processor
	Datasource datasources.Datasource
	Checkpoint Checkpoint

	config     Config
	scheduler  *BatchScheduler
	checkpoint uint64
	retries    int

	started  atomic.Bool
	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// New create new indexer
func New(processor Processor, datasource datasources.Datasource, checkpoint Checkpoint, config Config) *Indexer {
	config.BatchSize = utils.Default(config.BatchSize, DefaultBatchSize)
	config.PollInterval = utils.Default(config.PollInterval, DefaultPollInterval)
	config.RetryInitialDelay = utils.Default(config.RetryInitialDelay, DefaultRetryInitialDelay)
	config.RetryMaxDelay = utils.Default(config.RetryMaxDelay, DefaultRetryMaxDelay)

	return &Indexer{
		Processor:  processor,
		Datasource: datasource,
		Checkpoint: checkpoint,

		config:    config,
		scheduler: NewBatchScheduler(datasource, processor, checkpoint, config.Workers),

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (i *Indexer) Shutdown() error {
	return i.ShutdownWithContext(context.Background())
}

func (i *Indexer) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return i.ShutdownWithContext(ctx)
}

// ShutdownWithContext signals the indexer to stop after the in-flight batch and waits for it.
func (i *Indexer) ShutdownWithContext(ctx context.Context) (err error) {
	i.quitOnce.Do(func() {
		close(i.quit)
		if !i.started.Load() {
			return
		}
		select {
		case <-i.done:
		case <-time.After(shutdownTimeout):
			err = errors.Wrap(errs.Timeout, "indexer shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "indexer shutdown context canceled")
		}
	})
	return
}

func (i *Indexer) Run(ctx context.Context) (err error) {
	i.started.Store(true)
	defer close(i.done)

	ctx = logger.WithContext(ctx,
		slogx.String("package", "indexer"),
		slogx.String("processor", i.Processor.Name()),
		slogx.String("datasource", i.Datasource.Name()),
	)

	i.checkpoint, err = i.Checkpoint.Load(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "can't init state, failed to load checkpoint")
		}
		i.checkpoint = i.config.GenesisBlock
		logger.InfoContext(ctx, "No checkpoint found, starting from genesis block", slogx.Uint64("genesis_block", i.config.GenesisBlock))
	}
	metrics.CheckpointBlock.Set(float64(i.checkpoint))
	logger.InfoContext(ctx, "Loaded checkpoint", slogx.Uint64("checkpoint", i.checkpoint))

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-i.quit:
			return i.stop(ctx)
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		// timer and quit may be ready together while catching up
		select {
		case <-i.quit:
			return i.stop(ctx)
		default:
		}

		wait, err := i.process(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		timer.Reset(wait)
	}
}

// stop is only called between batches, the in-flight batch always completes first.
func (i *Indexer) stop(ctx context.Context) error {
	logger.InfoContext(ctx, "Got quit signal, stopping indexer")
	if err := i.Processor.Shutdown(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to shutdown processor", slogx.Error(err))
		return errors.Wrap(err, "processor shutdown failed")
	}
	return nil
}

// process runs at most one batch and returns the delay before the next call.
// Recoverable failures are turned into a backoff delay, only fatal errors are returned.
func (i *Indexer) process(ctx context.Context) (time.Duration, error) {
	head, err := i.Datasource.LatestBlockNumber(ctx)
	if err != nil {
		return i.backoff(ctx, err, BlockRange{})
	}

	blockRange, ok := NextRange(i.checkpoint, head, i.config.ConfirmationLag, i.config.BatchSize)
	if !ok {
		logger.DebugContext(ctx, "No new safe blocks, waiting for next polling interval",
			slogx.Uint64("checkpoint", i.checkpoint),
			slogx.Uint64("head", head),
		)
		return i.config.PollInterval, nil
	}

	ctx = logger.WithContext(ctx, slogx.BlockRange(blockRange.Start, blockRange.End))

	start := time.Now()
	logger.InfoContext(ctx, "Processing batch", slogx.Uint64("head", head))
	committed, err := i.scheduler.RunBatch(ctx, blockRange)
	if err != nil {
		return i.backoff(ctx, err, blockRange)
	}

	i.checkpoint = committed
	i.retries = 0
	metrics.Batches.WithLabelValues("success").Inc()
	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	metrics.BatchBlocks.Add(float64(blockRange.Len()))
	metrics.CheckpointBlock.Set(float64(committed))
	logger.InfoContext(ctx, "Processed batch successfully",
		slogx.String("event", "batch_committed"),
		slogx.Uint64("checkpoint", committed),
		slogx.Duration("duration", time.Since(start)),
	)

	if c, ok := i.Processor.(Committer); ok {
		c.Committed(ctx, blockRange)
	}

	// keep going without waiting while behind the safe head
	if safeHead := head - i.config.ConfirmationLag; committed < safeHead {
		return 0, nil
	}
	return i.config.PollInterval, nil
}

func (i *Indexer) backoff(ctx context.Context, err error, blockRange BlockRange) (time.Duration, error) {
	if errors.Is(err, errs.Configuration) {
		logger.CriticalContext(ctx, "Batch failed with a configuration error, stopping",
			slogx.String("event", "batch_fatal"),
			slogx.Uint64("checkpoint", i.checkpoint),
			slogx.Error(err),
		)
		return 0, errors.Wrap(err, "unrecoverable configuration error")
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return 0, nil
	}

	delay := i.config.RetryInitialDelay << min(i.retries, 16)
	if delay <= 0 || delay > i.config.RetryMaxDelay {
		delay = i.config.RetryMaxDelay
	}
	i.retries++

	metrics.Batches.WithLabelValues(batchFailureStatus(err)).Inc()
	logger.WarnContext(ctx, "Batch failed, checkpoint unchanged, retrying after backoff",
		slogx.String("event", "batch_failed"),
		slogx.Stringer("range", blockRange),
		slogx.Uint64("checkpoint", i.checkpoint),
		slogx.Int("attempt", i.retries),
		slogx.Duration("retry_in", delay),
		slogx.Error(err),
	)
	return delay, nil
}

func batchFailureStatus(err error) string {
	switch {
	case errors.Is(err, errs.TransientNode):
		return "transient_node_error"
	case errors.Is(err, errs.MalformedResponse):
		return "malformed_response"
	case errors.Is(err, errs.SinkWrite):
		return "sink_write_error"
	default:
		return "error"
	}
}
