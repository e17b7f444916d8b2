package evmclient

import (
	"context"
	"math/big"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultRateLimit      = 25
	DefaultRateBurst      = 10
)

type Config struct {
	// Endpoint is the node RPC endpoint (http(s):// or ws(s)://).
	Endpoint string `mapstructure:"endpoint"`

	// RequestTimeout is the deadline of every single RPC call. Default is 15s.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// RateLimit is the maximum number of RPC calls per second. Negative disables rate limiting. Default is 25.
	RateLimit float64 `mapstructure:"rate_limit"`

	// RateBurst is the burst capacity of the rate limiter. Default is 10.
	RateBurst int `mapstructure:"rate_burst"`
}

// Client is a rate-limited EVM JSON-RPC client with a per-call timeout.
type Client struct {
	eth     *ethclient.Client
	limiter *rate.Limiter
	timeout time.Duration
}

func New(ctx context.Context, conf Config) (*Client, error) {
	if conf.Endpoint == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "node endpoint is required")
	}

	dialCtx, cancel := context.WithTimeout(ctx, utils.Default(conf.RequestTimeout, DefaultRequestTimeout))
	defer cancel()
	eth, err := ethclient.DialContext(dialCtx, conf.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "can't dial node %q", conf.Endpoint)
	}

	return newClient(eth, conf), nil
}

func newClient(eth *ethclient.Client, conf Config) *Client {
	limit := rate.Inf
	if conf.RateLimit >= 0 {
		limit = rate.Limit(utils.Default(conf.RateLimit, DefaultRateLimit))
	}
	return &Client{
		eth:     eth,
		limiter: rate.NewLimiter(limit, utils.Default(conf.RateBurst, DefaultRateBurst)),
		timeout: utils.Default(conf.RequestTimeout, DefaultRequestTimeout),
	}
}

// wait blocks until the limiter grants one call, then returns a context bounded by the request timeout.
func (c *Client) wait(ctx context.Context) (context.Context, context.CancelFunc, error) {
	r := c.limiter.Reserve()
	if !r.OK() {
		return nil, nil, errors.New("rate limiter can't reserve token")
	}
	if delay := r.Delay(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			r.Cancel()
			return nil, nil, errors.WithStack(ctx.Err())
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return callCtx, cancel, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel, err := c.wait(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	n, err := c.eth.BlockNumber(ctx)
	return n, errors.WithStack(err)
}

func (c *Client) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	ctx, cancel, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	block, err := c.eth.BlockByNumber(ctx, number)
	return block, errors.WithStack(err)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	receipt, err := c.eth.TransactionReceipt(ctx, txHash)
	return receipt, errors.WithStack(err)
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	id, err := c.eth.ChainID(ctx)
	return id, errors.WithStack(err)
}

func (c *Client) Close() {
	c.eth.Close()
}

// Shutdown closes the client when the DI container shuts down.
func (c *Client) Shutdown() {
	c.Close()
}
