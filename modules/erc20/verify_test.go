package erc20

import (
	"context"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChainID struct {
	id  int64
	err error
}

func (c fakeChainID) ChainID(context.Context) (*big.Int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return big.NewInt(c.id), nil
}

type fakeIndexerInfo struct {
	state *entity.IndexerState
}

func (f *fakeIndexerInfo) GetLatestIndexerState(context.Context) (entity.IndexerState, error) {
	if f.state == nil {
		return entity.IndexerState{}, errors.WithStack(errs.NotFound)
	}
	return *f.state, nil
}

func (f *fakeIndexerInfo) SetIndexerState(_ context.Context, state entity.IndexerState) error {
	f.state = &state
	return nil
}

func TestVerifyChain(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, verifyChain(ctx, fakeChainID{id: 2020}, common.NetworkRonin))
	assert.ErrorIs(t, verifyChain(ctx, fakeChainID{id: 1}, common.NetworkRonin), errs.Configuration)
	assert.ErrorIs(t, verifyChain(ctx, fakeChainID{id: 1}, common.Network("bitcoin")), errs.Configuration)

	err := verifyChain(ctx, fakeChainID{err: errors.New("dial tcp: connection refused")}, common.NetworkRonin)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errs.Configuration)
}

func TestVerifyStates(t *testing.T) {
	ctx := context.Background()

	t.Run("initializes_missing_state", func(t *testing.T) {
		dg := &fakeIndexerInfo{}
		require.NoError(t, verifyStates(ctx, dg, common.NetworkRonin))
		require.NotNil(t, dg.state)
		assert.Equal(t, int32(DBVersion), dg.state.DBVersion)
		assert.Equal(t, common.NetworkRonin, dg.state.Network)

		assert.NoError(t, verifyStates(ctx, dg, common.NetworkRonin))
	})

	t.Run("db_version_mismatch", func(t *testing.T) {
		dg := &fakeIndexerInfo{state: &entity.IndexerState{DBVersion: DBVersion + 1, Network: common.NetworkRonin}}
		assert.ErrorIs(t, verifyStates(ctx, dg, common.NetworkRonin), errs.ConflictSetting)
	})

	t.Run("network_mismatch", func(t *testing.T) {
		dg := &fakeIndexerInfo{state: &entity.IndexerState{DBVersion: DBVersion, Network: common.NetworkSaigon}}
		assert.ErrorIs(t, verifyStates(ctx, dg, common.NetworkRonin), errs.ConflictSetting)
	})
}
