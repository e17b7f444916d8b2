package cmd

import (
	"context"
	"log/slog"

	"github.com/gaze-network/erc20-indexer/internal/config"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var (
	// root command
	cmd = &cobra.Command{
		Use: "erc20-indexer",
		Long: `Description of ERC20 Indexer
ERC20 Indexer ingests the Transfer events of a watch-list of ERC20 contracts into configurable sinks.`,
	}

	// sub-commands
	cmds = []*cobra.Command{
		NewVersionCommand(),
		NewRunCommand(),
		NewMigrateCommand(),
	}
)

// Execute runs the root command.
func Execute(ctx context.Context) {
	var configFile string

	// Add global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, E.g. `./config.yaml`")
	flags.String("network", "ronin", "network to connect to, E.g. `ronin` or `saigon`")

	// Bind flags to configuration
	config.BindPFlag("network", flags.Lookup("network"))

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		// Initialize configuration
		config := config.Parse(configFile)

		// Initialize logger
		if err := logger.Init(config.Logger); err != nil {
			logger.Panic("Something went wrong, can't init logger", slogx.Error(err), slog.Any("config", config.Logger))
		}
	})

	// Register sub-commands
	cmd.AddCommand(cmds...)

	// Execute command
	if err := cmd.ExecuteContext(ctx); err != nil {
		// Cobra will print the error message by default
		logger.DebugContext(ctx, "Error executing command", slogx.Error(err))
	}
}
