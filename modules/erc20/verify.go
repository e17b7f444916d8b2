package erc20

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
)

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// verifyChain checks that the node serves the configured network.
func verifyChain(ctx context.Context, client chainIDReader, network common.Network) error {
	if !network.IsSupported() {
		return errors.Wrapf(errs.Configuration, "%q network is not supported", network)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "can't get chain id from node")
	}
	if chainID.Cmp(network.ChainID()) != 0 {
		return errors.Wrapf(errs.Configuration, "node chain id %s does not match %s network (chain id %s)", chainID, network, network.ChainID())
	}
	return nil
}

// verifyStates checks that the persisted indexer state was written by a compatible version on the same network.
// A missing state is initialized.
func verifyStates(ctx context.Context, dg datagateway.IndexerInfoDataGateway, network common.Network) error {
	state, err := dg.GetLatestIndexerState(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "can't get latest indexer state")
		}
		if err := dg.SetIndexerState(ctx, entity.IndexerState{
			DBVersion: DBVersion,
			Network:   network,
		}); err != nil {
			return errors.Wrap(err, "can't set indexer state")
		}
		logger.InfoContext(ctx, "Initialized indexer state",
			slogx.Int("db_version", DBVersion),
			slogx.Stringer("network", network),
		)
		return nil
	}

	if state.DBVersion != DBVersion {
		return errors.Wrapf(errs.ConflictSetting, "db version mismatch: current version is %d. Please upgrade to version %d", state.DBVersion, DBVersion)
	}
	if state.Network != network {
		return errors.Wrapf(errs.ConflictSetting, "network mismatch: latest indexed network is %q, configured network is %q. If you want to change the network, please reset the database", state.Network, network)
	}
	return nil
}
