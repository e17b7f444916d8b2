package cmd

import (
	"github.com/gaze-network/erc20-indexer/cmd/migrate"
	"github.com/spf13/cobra"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the indexer database schema",
		Long:  "Each module tracks its own migrations table, so modules can be migrated independently.",
	}
	cmd.AddCommand(
		migrate.NewMigrateUpCommand(),
		migrate.NewMigrateDownCommand(),
	)
	return cmd
}
