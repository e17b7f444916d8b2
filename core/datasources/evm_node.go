package datasources

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/types"
	"github.com/gaze-network/erc20-indexer/internal/metrics"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"golang.org/x/sync/errgroup"
)

const DefaultReceiptWorkers = 4

// NodeClient is the subset of an EVM JSON-RPC client consumed by the datasource.
// [github.com/ethereum/go-ethereum/ethclient.Client] satisfies it.
type NodeClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// TxFilter reports whether receipts of transactions sent to the given address should be fetched.
type TxFilter func(to common.Address) bool

// Make sure to implement the Datasource interface
var _ Datasource = (*EVMNodeDatasource)(nil)

// EVMNodeDatasource fetches blocks and the receipts of selected transactions from an EVM node.
type EVMNodeDatasource struct {
	client         NodeClient
	filter         TxFilter
	receiptWorkers int
}

func NewEVMNode(client NodeClient, filter TxFilter, receiptWorkers int) *EVMNodeDatasource {
	return &EVMNodeDatasource{
		client:         client,
		filter:         filter,
		receiptWorkers: utils.Default(receiptWorkers, DefaultReceiptWorkers),
	}
}

func (d EVMNodeDatasource) Name() string {
	return "evm_node"
}

func (d *EVMNodeDatasource) LatestBlockNumber(ctx context.Context) (uint64, error) {
	start := time.Now()
	number, err := d.client.BlockNumber(ctx)
	observeNodeRequest("eth_blockNumber", start, err)
	if err != nil {
		return 0, nodeError(err, "can't get latest block number")
	}
	metrics.ChainHeadBlock.Set(float64(number))
	return number, nil
}

// FetchBlock fetches the block with its transactions and, for every transaction sent to
// an address accepted by the filter, its receipt. Contract creations and transactions to
// other addresses are skipped without a receipt call.
func (d *EVMNodeDatasource) FetchBlock(ctx context.Context, number uint64) (*types.Block, error) {
	start := time.Now()
	src, err := d.client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	observeNodeRequest("eth_getBlockByNumber", start, err)
	if err != nil {
		return nil, nodeError(err, "can't get block %d", number)
	}
	if src == nil {
		return nil, errors.Wrapf(errs.MalformedResponse, "node returned empty block %d", number)
	}
	if src.NumberU64() != number {
		return nil, errors.Wrapf(errs.MalformedResponse, "node returned block %d, expected %d", src.NumberU64(), number)
	}

	block := &types.Block{
		Header: types.ParseHeader(src),
	}

	type selectedTx struct {
		index int
		tx    *ethtypes.Transaction
	}
	selected := make([]selectedTx, 0)
	for i, tx := range src.Transactions() {
		to := tx.To()
		if to == nil || !d.filter(*to) {
			continue
		}
		selected = append(selected, selectedTx{index: i, tx: tx})
	}
	if len(selected) == 0 {
		return block, nil
	}

	block.Transactions = make([]*types.Transaction, len(selected))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(d.receiptWorkers)
	for i, item := range selected {
		eg.Go(func() error {
			txHash := item.tx.Hash()
			start := time.Now()
			receipt, err := d.client.TransactionReceipt(ectx, txHash)
			observeNodeRequest("eth_getTransactionReceipt", start, err)
			if err != nil {
				return nodeError(err, "can't get receipt of tx %s in block %d", txHash, number)
			}
			if receipt == nil {
				return errors.Wrapf(errs.TransientNode, "receipt of tx %s in block %d is not available yet", txHash, number)
			}
			if receipt.TxHash != txHash {
				return errors.Wrapf(errs.MalformedResponse, "receipt tx hash mismatch in block %d, got %s, expected %s", number, receipt.TxHash, txHash)
			}
			if receipt.BlockNumber != nil && receipt.BlockNumber.Uint64() != number {
				return errors.Wrapf(errs.TransientNode, "receipt of tx %s belongs to block %s, expected %d, chain may be reorganizing", txHash, receipt.BlockNumber, number)
			}
			if receipt.BlockHash != (common.Hash{}) && receipt.BlockHash != block.Header.Hash {
				return errors.Wrapf(errs.TransientNode, "receipt of tx %s belongs to block %s, expected %s at height %d, chain may be reorganizing", txHash, receipt.BlockHash, block.Header.Hash, number)
			}
			block.Transactions[i] = types.ParseReceipt(item.tx, item.index, receipt)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.WarnContext(ctx, "Failed to fetch block receipts",
			slogx.String("event", "fetch_receipts_failed"),
			slogx.Uint64("block", number),
			slogx.Int("selected_txs", len(selected)),
			slogx.Error(err),
		)
		return nil, errors.WithStack(err)
	}

	return block, nil
}

// nodeError tags a node call failure with its error kind.
// Decoding failures are malformed responses, everything else is treated as transient.
func nodeError(err error, format string, args ...any) error {
	var (
		syntaxErr    *json.SyntaxError
		unmarshalErr *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return errors.Wrapf(err, format, args...)
	case errors.As(err, &syntaxErr), errors.As(err, &unmarshalErr):
		return errors.Wrapf(errors.Join(err, errs.MalformedResponse), format, args...)
	default:
		return errors.Wrapf(errors.Join(err, errs.TransientNode), format, args...)
	}
}

func observeNodeRequest(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.NodeRequests.WithLabelValues(method, status).Inc()
	metrics.NodeRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
