package postgres

import (
	"github.com/gaze-network/erc20-indexer/internal/postgres"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	"github.com/gaze-network/erc20-indexer/modules/erc20/repository/postgres/gen"
)

var (
	_ datagateway.SinkWriter             = (*Repository)(nil)
	_ datagateway.CheckpointDataGateway  = (*Repository)(nil)
	_ datagateway.IndexerInfoDataGateway = (*Repository)(nil)
)

type Repository struct {
	db      postgres.DB
	queries *gen.Queries
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db:      db,
		queries: gen.New(db),
	}
}

func (r *Repository) Name() string {
	return "postgres"
}
