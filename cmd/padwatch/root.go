package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for padwatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "padwatch",
		Short: "Watch collaborative markdown pads and report settled changes",
		Long: `padwatch crawls HedgeDoc/CodiMD style pad servers starting from a set of
seed pads, follows links to other pads on the configured servers, and sends
a diff notification once a changed pad has not been edited for the
configured cool-down.

Variables from a .env file in the working directory are loaded before the
configuration file is read, so secrets can be referenced as ${VAR}.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: ./padwatch.yaml or $XDG_CONFIG_HOME/padwatch/config.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewLinksCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
