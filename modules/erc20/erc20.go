package erc20

import (
	"context"
	"strings"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/datasources"
	"github.com/gaze-network/erc20-indexer/core/indexer"
	"github.com/gaze-network/erc20-indexer/internal/config"
	"github.com/gaze-network/erc20-indexer/internal/postgres"
	"github.com/gaze-network/erc20-indexer/modules/erc20/api/httphandler"
	erc20config "github.com/gaze-network/erc20-indexer/modules/erc20/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
	erc20dynamodb "github.com/gaze-network/erc20-indexer/modules/erc20/repository/dynamodb"
	erc20file "github.com/gaze-network/erc20-indexer/modules/erc20/repository/file"
	erc20influxdb "github.com/gaze-network/erc20-indexer/modules/erc20/repository/influxdb"
	erc20nats "github.com/gaze-network/erc20-indexer/modules/erc20/repository/natsstream"
	erc20postgres "github.com/gaze-network/erc20-indexer/modules/erc20/repository/postgres"
	erc20s3parquet "github.com/gaze-network/erc20-indexer/modules/erc20/repository/s3parquet"
	"github.com/gaze-network/erc20-indexer/pkg/automaxprocs"
	"github.com/gaze-network/erc20-indexer/pkg/evmclient"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/erc20-indexer/pkg/reportingclient"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

const (
	DefaultWorkers        = 8
	DefaultReceiptWorkers = 4
)

func New(injector do.Injector) (indexer.IndexerWorker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	reportingClient := do.MustInvoke[*reportingclient.ReportingClient](injector)
	moduleConf := conf.Modules.ERC20

	registry, err := NewRegistry(moduleConf.Contracts)
	if err != nil {
		return nil, errors.Wrap(err, "invalid watch-list")
	}
	classifier, err := NewClassifier(registry, moduleConf.Treasury, moduleConf.SelfRouting)
	if err != nil {
		return nil, errors.Wrap(err, "invalid classifier configuration")
	}

	stores := &stores{conf: moduleConf}
	if err := stores.init(ctx); err != nil {
		stores.cleanup(ctx)
		return nil, errors.WithStack(err)
	}

	client, err := do.Invoke[*evmclient.Client](injector)
	if err != nil {
		stores.cleanup(ctx)
		return nil, errors.Wrap(err, "can't get node client")
	}
	if err := verifyChain(ctx, client, conf.Network); err != nil {
		stores.cleanup(ctx)
		return nil, errors.WithStack(err)
	}
	if stores.indexerInfo != nil {
		if err := verifyStates(ctx, stores.indexerInfo, conf.Network); err != nil {
			stores.cleanup(ctx)
			return nil, errors.WithStack(err)
		}
	}
	if reportingClient != nil {
		if err := reportingClient.SubmitNodeReport(ctx, common.ModuleERC20.String(), conf.Network); err != nil {
			logger.WarnContext(ctx, "Failed to submit node report", slogx.Error(err))
		}
	}

	checkpoint := newCheckpointStore(stores.checkpoint)
	sink := newMultiSink(stores.sinks...)
	processor := NewProcessor(registry, classifier, sink, conf.Network, reportingClient, stores.cleanupFuncs)

	// Mount API
	apiHandlers := lo.Uniq(moduleConf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			erc20HTTPHandler := httphandler.New(conf.Network, checkpoint, registry)
			if err := erc20HTTPHandler.Mount(httpServer); err != nil {
				stores.cleanup(ctx)
				return nil, errors.Wrap(err, "can't mount ERC20 API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			stores.cleanup(ctx)
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	datasource := datasources.NewEVMNode(client, registry.IsWatched, utils.Default(moduleConf.ReceiptWorkers, automaxprocs.Scaled(1, DefaultReceiptWorkers)))

	genesis, ok := startingBlock[conf.Network]
	if !ok {
		genesis = DefaultGenesisBlock
	}
	indexer := indexer.New(processor, datasource, checkpoint, indexer.Config{
		GenesisBlock:    utils.Default(moduleConf.GenesisBlock, genesis),
		ConfirmationLag: utils.Default(moduleConf.ConfirmationLag, DefaultConfirmationLag),
		BatchSize:       utils.Default(moduleConf.BatchSize, DefaultBatchSize),
		Workers:         utils.Default(moduleConf.Workers, automaxprocs.Scaled(2, DefaultWorkers)),
		PollInterval:    moduleConf.PollInterval,
	})

	logger.InfoContext(ctx, "Initialized ERC20 indexer",
		slogx.Int("contracts", len(registry.Contracts())),
		slogx.String("sink", sink.Name()),
		slogx.Uint64("genesis_block", utils.Default(moduleConf.GenesisBlock, genesis)),
	)
	return indexer, nil
}

// stores holds the sinks and checkpoint store selected by the configuration.
type stores struct {
	conf erc20config.Config

	sinks        []datagateway.SinkWriter
	checkpoint   datagateway.CheckpointDataGateway
	indexerInfo  datagateway.IndexerInfoDataGateway
	cleanupFuncs []func(context.Context) error

	pg     *erc20postgres.Repository
	dynamo *erc20dynamodb.Repository
}

func (s *stores) init(ctx context.Context) error {
	sinks := lo.Uniq(lo.Map(s.conf.Sinks, func(item string, _ int) string {
		return strings.ToLower(strings.TrimSpace(item))
	}))
	sinks = lo.Compact(sinks)
	if len(sinks) == 0 {
		return errors.Wrap(errs.Configuration, "at least one sink is required")
	}

	for _, name := range sinks {
		sink, err := s.newSink(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "can't create %s sink", name)
		}
		s.sinks = append(s.sinks, sink)
	}

	switch strings.ToLower(utils.Default(s.conf.Checkpoint, "file")) {
	case "file":
		s.checkpoint = erc20file.NewCheckpointRepository(utils.Default(s.conf.File.Path, erc20file.DefaultPath))
	case "postgresql", "postgres", "pg":
		pg, err := s.postgres(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		s.checkpoint = pg
	case "dynamodb":
		dynamo, err := s.dynamodb(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		s.checkpoint = dynamo
	default:
		return errors.Wrapf(errs.Configuration, "%q checkpoint store is not supported", s.conf.Checkpoint)
	}
	return nil
}

func (s *stores) newSink(ctx context.Context, name string) (datagateway.SinkWriter, error) {
	switch name {
	case "postgresql", "postgres", "pg":
		return s.postgres(ctx)
	case "dynamodb":
		return s.dynamodb(ctx)
	case "influxdb":
		repo, client, err := erc20influxdb.New(s.conf.InfluxDB)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		s.cleanupFuncs = append(s.cleanupFuncs, func(context.Context) error {
			client.Close()
			return nil
		})
		return repo, nil
	case "s3parquet":
		repo, err := erc20s3parquet.New(ctx, s.conf.S3Parquet)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return repo, nil
	case "nats":
		repo, conn, err := erc20nats.New(ctx, s.conf.NATS)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		s.cleanupFuncs = append(s.cleanupFuncs, func(context.Context) error {
			return errors.WithStack(conn.Drain())
		})
		return repo, nil
	default:
		return nil, errors.Wrapf(errs.Configuration, "%q sink is not supported", name)
	}
}

// postgres returns the postgres repository, sharing one pool between sink and checkpoint.
func (s *stores) postgres(ctx context.Context) (*erc20postgres.Repository, error) {
	if s.pg != nil {
		return s.pg, nil
	}
	pg, err := postgres.NewPool(ctx, s.conf.Postgres)
	if err != nil {
		if errors.Is(err, errs.InvalidArgument) {
			return nil, errors.Wrap(err, "Invalid Postgres configuration for indexer")
		}
		return nil, errors.Wrap(err, "can't create Postgres connection pool")
	}
	s.cleanupFuncs = append(s.cleanupFuncs, func(context.Context) error {
		pg.Close()
		return nil
	})
	s.pg = erc20postgres.NewRepository(pg)
	s.indexerInfo = s.pg
	return s.pg, nil
}

func (s *stores) dynamodb(ctx context.Context) (*erc20dynamodb.Repository, error) {
	if s.dynamo != nil {
		return s.dynamo, nil
	}
	dynamo, err := erc20dynamodb.New(ctx, s.conf.DynamoDB)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.dynamo = dynamo
	return s.dynamo, nil
}

// cleanup releases the connections opened so far, used when the module fails to start.
func (s *stores) cleanup(ctx context.Context) {
	for _, cleanup := range s.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to release connection", slogx.Error(err))
		}
	}
}
