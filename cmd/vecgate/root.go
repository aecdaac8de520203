package main

import "github.com/spf13/cobra"

// NewRootCmd creates the root vecgate command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vecgate",
		Short:         "Semantic search gateway in front of an Endee vector index",
		Long:          "vecgate embeds queries, searches an Endee collection and maps hits back to source text.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file (default: config/$ENV.yaml)")

	root.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newVersionCmd(),
	)

	return root
}
