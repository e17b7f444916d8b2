package erc20

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wethAddress     = "0xc99a6a985ed2cac1ef41640596c5a5f9f4e19ef5"
	axsAddress      = "0x97a9107c1793bc407d6f527b77e7fff4d812bece"
	slpAddress      = "0xa8754b9fa15fc18bb59458815510e40a12cd2014"
	treasuryAddress = "0xa99cacd1427f493a95b585a5c7989a08c86a616b"
)

var testContracts = []config.Contract{
	{Address: wethAddress, Symbol: "WETH", Decimals: 18},
	{Address: axsAddress, Symbol: "AXS", Decimals: 18},
	{Address: slpAddress, Symbol: "SLP", Decimals: 0},
}

func TestNewRegistry(t *testing.T) {
	type testCase struct {
		name      string
		contracts []config.Contract
	}
	invalidCases := []testCase{
		{name: "empty_watch_list"},
		{name: "invalid_address", contracts: []config.Contract{{Address: "0x1234", Symbol: "BAD", Decimals: 18}}},
		{name: "missing_symbol", contracts: []config.Contract{{Address: wethAddress, Decimals: 18}}},
		{name: "decimals_out_of_range", contracts: []config.Contract{{Address: wethAddress, Symbol: "WETH", Decimals: 19}}},
		{
			name: "duplicate_address_in_different_case",
			contracts: []config.Contract{
				{Address: wethAddress, Symbol: "WETH", Decimals: 18},
				{Address: "0xC99A6A985ED2CAC1EF41640596C5A5F9F4E19EF5", Symbol: "WETH2", Decimals: 18},
			},
		},
	}
	for _, tc := range invalidCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.contracts)
			assert.ErrorIs(t, err, errs.Configuration)
		})
	}

	t.Run("valid", func(t *testing.T) {
		registry, err := NewRegistry(testContracts)
		require.NoError(t, err)
		assert.Len(t, registry.Contracts(), 3)
	})
}

func TestRegistryLookup(t *testing.T) {
	registry, err := NewRegistry(testContracts)
	require.NoError(t, err)

	t.Run("case_insensitive", func(t *testing.T) {
		info, ok := registry.Lookup(common.HexToAddress("0xA8754B9FA15FC18BB59458815510E40A12CD2014"))
		require.True(t, ok)
		assert.Equal(t, "SLP", info.Symbol)
		assert.Equal(t, uint8(0), info.Decimals)
		assert.True(t, registry.IsWatched(common.HexToAddress(slpAddress)))
	})

	t.Run("unwatched", func(t *testing.T) {
		_, ok := registry.Lookup(common.HexToAddress(treasuryAddress))
		assert.False(t, ok)
		assert.False(t, registry.IsWatched(common.HexToAddress(treasuryAddress)))
	})

	t.Run("sorted_by_symbol", func(t *testing.T) {
		contracts := registry.Contracts()
		symbols := make([]string, 0, len(contracts))
		for _, c := range contracts {
			symbols = append(symbols, c.Symbol)
		}
		assert.Equal(t, []string{"AXS", "SLP", "WETH"}, symbols)
	})
}
