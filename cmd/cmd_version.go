package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/core/constants"
	"github.com/gaze-network/erc20-indexer/modules/erc20"
	"github.com/spf13/cobra"
)

var versions = map[string]string{
	"":      constants.Version,
	"erc20": erc20.Version,
}

type versionCmdOptions struct {
	Modules string
}

func NewVersionCommand() *cobra.Command {
	opts := &versionCmdOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show erc20-indexer version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Modules, "module", "", `Show version of a specific module. E.g. "erc20"`)

	return cmd
}

func versionHandler(opts *versionCmdOptions, cmd *cobra.Command, _ []string) error {
	version, ok := versions[opts.Modules]
	if !ok {
		return errors.Wrapf(errs.Unsupported, "Invalid module name %q", opts.Modules)
	}
	fmt.Fprintln(cmd.OutOrStdout(), version)
	return nil
}
