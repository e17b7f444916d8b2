package erc20

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/samber/lo"
)

const maxDecimals = 18

// Registry is the immutable watch-list of ERC20 contracts, keyed by lower-cased hex address.
type Registry struct {
	contracts map[string]entity.ContractInfo
}

func NewRegistry(contracts []config.Contract) (*Registry, error) {
	if len(contracts) == 0 {
		return nil, errors.Wrap(errs.Configuration, "watch-list must contain at least one contract")
	}

	registry := &Registry{
		contracts: make(map[string]entity.ContractInfo, len(contracts)),
	}
	for _, c := range contracts {
		if !common.IsHexAddress(c.Address) {
			return nil, errors.Wrapf(errs.Configuration, "invalid contract address %q", c.Address)
		}
		if c.Symbol == "" {
			return nil, errors.Wrapf(errs.Configuration, "missing symbol for contract %s", c.Address)
		}
		if c.Decimals > maxDecimals {
			return nil, errors.Wrapf(errs.Configuration, "decimals of %s must be in range 0..%d, got %d", c.Symbol, maxDecimals, c.Decimals)
		}

		address := common.HexToAddress(c.Address)
		key := addressKey(address)
		if existing, ok := registry.contracts[key]; ok {
			return nil, errors.Wrapf(errs.Configuration, "duplicate contract address %s for %s and %s", c.Address, existing.Symbol, c.Symbol)
		}
		registry.contracts[key] = entity.ContractInfo{
			Address:  address,
			Symbol:   c.Symbol,
			Decimals: c.Decimals,
		}
	}
	return registry, nil
}

func (r *Registry) Lookup(address common.Address) (entity.ContractInfo, bool) {
	info, ok := r.contracts[addressKey(address)]
	return info, ok
}

func (r *Registry) IsWatched(address common.Address) bool {
	_, ok := r.contracts[addressKey(address)]
	return ok
}

// Contracts returns the watch-list sorted by symbol.
func (r *Registry) Contracts() []entity.ContractInfo {
	contracts := lo.Values(r.contracts)
	slices.SortFunc(contracts, func(a, b entity.ContractInfo) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return contracts
}

func addressKey(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// addressSet parses a list of hex addresses into a lookup set.
func addressSet(name string, addresses []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if !common.IsHexAddress(a) {
			return nil, errors.Wrapf(errs.Configuration, "invalid %s address %q", name, a)
		}
		set[addressKey(common.HexToAddress(a))] = struct{}{}
	}
	return set, nil
}
