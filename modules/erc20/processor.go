package erc20

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/indexer"
	"github.com/gaze-network/erc20-indexer/core/types"
	"github.com/gaze-network/erc20-indexer/internal/metrics"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gaze-network/erc20-indexer/pkg/decimals"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/erc20-indexer/pkg/reportingclient"
)

// Make sure to implement the indexer interfaces
var (
	_ indexer.Processor = (*Processor)(nil)
	_ indexer.Committer    = (*Processor)(nil)
	_ indexer.BatchStarter = (*Processor)(nil)
)

type Processor struct {
	registry        *Registry
	classifier      *Classifier
	sink            datagateway.SinkWriter
	network         common.Network
	reportingClient *reportingclient.ReportingClient
	cleanupFuncs    []func(context.Context) error

	// transfers written by the current batch attempt
	written atomic.Uint64
}

func NewProcessor(registry *Registry, classifier *Classifier, sink datagateway.SinkWriter, network common.Network, reportingClient *reportingclient.ReportingClient, cleanupFuncs []func(context.Context) error) *Processor {
	return &Processor{
		registry:        registry,
		classifier:      classifier,
		sink:            sink,
		network:         network,
		reportingClient: reportingClient,
		cleanupFuncs:    cleanupFuncs,
	}
}

func (p *Processor) Name() string {
	return common.ModuleERC20.String()
}

// Process extracts the Transfer events of watched contracts from the block and writes
// every non-discarded transfer to the sink.
func (p *Processor) Process(ctx context.Context, block *types.Block) error {
	for _, tx := range block.Transactions {
		for _, log := range tx.Logs {
			if log.Removed || !IsTransfer(log) {
				continue
			}
			info, ok := p.registry.Lookup(log.Address)
			if !ok {
				// transfers of other tokens emitted by the same transaction
				continue
			}

			decoded, err := DecodeTransfer(log)
			if err != nil {
				logger.WarnContext(ctx, "Malformed transfer log from watched contract",
					slogx.String("event", "malformed_transfer_log"),
					slogx.Uint64("block", block.Header.Number),
					slogx.Stringer("tx_hash", tx.Hash),
					slogx.Uint64("log_index", uint64(log.Index)),
					slogx.String("symbol", info.Symbol),
				)
				return errors.Wrapf(err, "can't decode transfer in block %d", block.Header.Number)
			}

			category := p.classifier.Classify(log, decoded)
			metrics.Transfers.WithLabelValues(info.Symbol, category.String()).Inc()
			if category == entity.CategoryDiscarded {
				continue
			}

			record := newTransfer(block.Header, log, info, decoded, category)
			if err := p.sink.Write(ctx, info.Symbol, record); err != nil {
				metrics.SinkWrites.WithLabelValues(p.sink.Name(), "error").Inc()
				if !errors.Is(err, errs.SinkWrite) {
					err = errors.Join(err, errs.SinkWrite)
				}
				return errors.Wrapf(err, "can't write transfer %s to %s", record.Key(), p.sink.Name())
			}
			metrics.SinkWrites.WithLabelValues(p.sink.Name(), "success").Inc()
			p.written.Add(1)
		}
	}
	return nil
}

// StartBatch drops the write count of a previous failed attempt.
func (p *Processor) StartBatch(_ context.Context, _ indexer.BlockRange) {
	p.written.Store(0)
}

func (p *Processor) Flush(ctx context.Context, blockRange indexer.BlockRange) error {
	flusher, ok := p.sink.(datagateway.BatchFlusher)
	if !ok {
		return nil
	}
	if err := flusher.Flush(ctx, blockRange.Start, blockRange.End); err != nil {
		if !errors.Is(err, errs.SinkWrite) {
			err = errors.Join(err, errs.SinkWrite)
		}
		return errors.Wrapf(err, "can't flush %s", p.sink.Name())
	}
	return nil
}

func (p *Processor) Committed(ctx context.Context, blockRange indexer.BlockRange) {
	written := p.written.Swap(0)
	if p.reportingClient == nil {
		return
	}
	if err := p.reportingClient.SubmitBatchReport(ctx, reportingclient.SubmitBatchReportPayload{
		Type:          common.ModuleERC20.String(),
		ClientVersion: Version,
		DBVersion:     DBVersion,
		Network:       p.network,
		FromBlock:     blockRange.Start,
		ToBlock:       blockRange.End,
		Transfers:     written,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to submit batch report", slogx.Error(err))
	}
}

func (p *Processor) Shutdown(ctx context.Context) error {
	var errList []error
	for _, cleanup := range p.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}

func newTransfer(header types.BlockHeader, log *types.Log, info entity.ContractInfo, decoded DecodedTransfer, category entity.Category) entity.Transfer {
	return entity.Transfer{
		Timestamp:   header.Timestamp,
		BlockNumber: header.Number,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
		Contract:    info.Address,
		Symbol:      info.Symbol,
		From:        decoded.From,
		To:          decoded.To,
		RawValue:    decoded.RawValue,
		Value:       decimals.FromBaseUnits(decoded.RawValue, info.Decimals),
		Category:    category,
	}
}
