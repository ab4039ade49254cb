package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the truthctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "truthctl",
		Short: "truthctl - inspect Truth documents from the command line",
		Long: `truthctl parses a Truth source file, runs the reference
resolver and phrase-graph builder over it, and answers questions about
the result: its fault list, its indentation tree, or an ad hoc explain
query.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewOpenCmd())
	cmd.AddCommand(NewFaultsCmd())
	cmd.AddCommand(NewTreeCmd())
	cmd.AddCommand(NewExplainCmd())

	return cmd
}
