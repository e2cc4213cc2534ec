package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/dotmarker/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `serve speaks MCP (JSON-RPC 2.0, one message per line) over stdin and
stdout. Configure it in your MCP client as a stdio server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server.Version = Version
			return server.New().Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
