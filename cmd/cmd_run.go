package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/indexer"
	"github.com/gaze-network/erc20-indexer/internal/config"
	"github.com/gaze-network/erc20-indexer/modules/erc20"
	"github.com/gaze-network/erc20-indexer/pkg/automaxprocs"
	"github.com/gaze-network/erc20-indexer/pkg/errorhandler"
	"github.com/gaze-network/erc20-indexer/pkg/evmclient"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/erc20-indexer/pkg/middleware/requestcontext"
	"github.com/gaze-network/erc20-indexer/pkg/middleware/requestlogger"
	"github.com/gaze-network/erc20-indexer/pkg/reportingclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Modules are the indexer modules that can be enabled by name.
var Modules = do.Package(
	do.LazyNamed("erc20", erc20.New),
)

// shutdownTimeout bounds the graceful shutdown before the process is killed.
const shutdownTimeout = 75 * time.Second

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the ERC20 transfer indexer and its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	flags := runCmd.Flags()
	flags.Bool("api-only", false, "Serve the HTTP API without ingesting blocks")
	flags.String("modules", "", "Enable specific modules to run. E.g. `erc20`")

	config.BindPFlag("api_only", flags.Lookup("api-only"))
	config.BindPFlag("enable_modules", flags.Lookup("modules"))

	return runCmd
}

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()
	if !conf.Network.IsSupported() {
		return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)
	do.Provide(injector, provideEVMClient(ctx))
	do.Provide(injector, provideReportingClient)
	do.Provide(injector, provideHTTPServer)

	// indexers get their own context so a signal stops them through Shutdown, not by cancellation mid-batch
	ctxWorker, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	ctxWorker = logger.WithContext(ctxWorker, slogx.Stringer("network", conf.Network))

	workers, err := invokeModules(injector, conf.EnableModules)
	if err != nil {
		return errors.WithStack(err)
	}
	// first failure of an indexer or the HTTP server, reported as the command error
	failures := make(chan error, len(workers)+1)

	if !conf.APIOnly {
		for module, worker := range workers {
			go func(ctx context.Context, worker indexer.IndexerWorker) {
				defer stop()
				logger.InfoContext(ctx, "Starting indexer")
				if err := worker.Run(ctx); err != nil {
					logger.ErrorContext(ctx, "Indexer stopped with error", slogx.Error(err))
					failures <- errors.Wrapf(err, "module %q", module)
				}
			}(logger.WithContext(ctxWorker, slogx.String("module", module)), worker)
		}
	}

	httpServer := do.MustInvoke[*fiber.App](injector)
	go func() {
		defer stop()
		logger.InfoContext(ctx, "Started HTTP server", slogx.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			logger.ErrorContext(ctx, "HTTP server stopped with error", slogx.Error(err))
			failures <- errors.Wrap(err, "http server")
		}
	}()

	logger.InfoContext(ctxWorker, "ERC20 indexer started", slogx.Any("modules", lo.Keys(workers)), slogx.Any("api_only", conf.APIOnly))
	<-ctx.Done()
	logger.InfoContext(ctxWorker, "Shutting down")

	go forceExitOnSecondSignal()

	if err := httpServer.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.ErrorContext(ctxWorker, "Failed to shut down HTTP server", slogx.Error(err))
	}
	if err := injector.Shutdown(); err != nil {
		return errors.Wrap(err, "failed while gracefully shutting down")
	}
	select {
	case err := <-failures:
		return errors.WithStack(err)
	default:
		return nil
	}
}

// invokeModules builds every enabled module, keyed by its name.
func invokeModules(injector do.Injector, enabled []string) (map[string]indexer.IndexerWorker, error) {
	names := lo.Uniq(lo.Compact(lo.Map(enabled, func(name string, _ int) string {
		return strings.ToLower(strings.TrimSpace(name))
	})))
	if len(names) == 0 {
		return nil, errors.Wrap(errs.Configuration, "no module is enabled")
	}

	workers := make(map[string]indexer.IndexerWorker, len(names))
	for _, name := range names {
		worker, err := do.InvokeNamed[indexer.IndexerWorker](injector, name)
		if err != nil {
			if errors.Is(err, do.ErrServiceNotFound) {
				return nil, errors.Wrapf(errs.Unsupported, "module %q is not supported", name)
			}
			return nil, errors.Wrapf(err, "can't init module %q", name)
		}
		workers[name] = worker
	}
	return workers, nil
}

func provideEVMClient(ctx context.Context) func(do.Injector) (*evmclient.Client, error) {
	return func(i do.Injector) (*evmclient.Client, error) {
		conf := do.MustInvoke[config.Config](i)

		start := time.Now()
		logger.InfoContext(ctx, "Connecting to EVM node", slogx.String("endpoint", conf.Node.Endpoint))
		client, err := evmclient.New(ctx, conf.Node)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "invalid EVM node configuration")
			}
			return nil, errors.Wrapf(err, "can't connect to EVM node %q", conf.Node.Endpoint)
		}

		head, err := client.BlockNumber(ctx)
		if err != nil {
			client.Close()
			return nil, errors.Wrapf(err, "can't get latest block from EVM node %q", conf.Node.Endpoint)
		}
		logger.InfoContext(ctx, "Connected to EVM node",
			slogx.Duration("latency", time.Since(start)),
			slogx.Uint64("head", head),
		)
		return client, nil
	}
}

// provideReportingClient returns a nil client when reporting is disabled.
func provideReportingClient(i do.Injector) (*reportingclient.ReportingClient, error) {
	conf := do.MustInvoke[config.Config](i)
	if conf.Reporting.Disabled {
		return nil, nil
	}
	client, err := reportingclient.New(conf.Reporting)
	if err != nil {
		if errors.Is(err, errs.InvalidArgument) {
			return nil, errors.Wrap(err, "invalid reporting configuration")
		}
		return nil, errors.Wrap(err, "can't create reporting client")
	}
	return client, nil
}

func provideHTTPServer(i do.Injector) (*fiber.App, error) {
	conf := do.MustInvoke[config.Config](i)

	app := fiber.New(fiber.Config{
		AppName:               "ERC20 Indexer",
		ErrorHandler:          errorhandler.NewHTTPErrorHandler(),
		DisableStartupMessage: true,
	})
	app.
		Use(favicon.New()).
		Use(cors.New()).
		Use(requestid.New()).
		Use(requestcontext.New(
			requestcontext.WithRequestId(),
			requestcontext.WithClientIP(conf.HTTPServer.RequestIP),
		)).
		Use(requestlogger.New(conf.HTTPServer.Logger)).
		Use(fiberrecover.New(fiberrecover.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
				logger.ErrorContext(c.UserContext(), "Recovered from panic in HTTP handler",
					slogx.Any("panic", e),
					slogx.String("stacktrace", string(debug.Stack())),
				)
			},
		})).
		Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
		}))

	app.Get("/", func(c *fiber.Ctx) error {
		return errors.WithStack(c.SendStatus(http.StatusOK))
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app, nil
}

// forceExitOnSecondSignal kills the process on a second signal or when the graceful shutdown hangs.
func forceExitOnSecondSignal() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.FatalContext(ctx, "Received exit signal again, forcing shutdown")
	case <-time.After(shutdownTimeout + 15*time.Second):
		logger.FatalContext(ctx, "Shutdown timeout exceeded, forcing shutdown")
	}
}
