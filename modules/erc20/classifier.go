package erc20

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/core/types"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
)

// Classifier assigns a category to decoded transfers. It is read-only after construction.
type Classifier struct {
	registry    *Registry
	treasury    map[string]struct{}
	selfRouting map[string]struct{}
}

func NewClassifier(registry *Registry, treasury, selfRouting []string) (*Classifier, error) {
	treasurySet, err := addressSet("treasury", treasury)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	selfRoutingSet, err := addressSet("self-routing", selfRouting)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Classifier{
		registry:    registry,
		treasury:    treasurySet,
		selfRouting: selfRoutingSet,
	}, nil
}

// Classify returns the category of a transfer. Unwatched contracts are discarded,
// then treasury recipients take precedence over self-routing recipients.
func (c *Classifier) Classify(log *types.Log, decoded DecodedTransfer) entity.Category {
	if !c.registry.IsWatched(log.Address) {
		return entity.CategoryDiscarded
	}
	to := addressKey(decoded.To)
	if _, ok := c.treasury[to]; ok {
		return entity.CategoryTreasuryDeposit
	}
	if _, ok := c.selfRouting[to]; ok {
		return entity.CategoryDiscarded
	}
	return entity.CategoryGenericTransfer
}
