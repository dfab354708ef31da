package main

import (
	"os"

	"github.com/aretw0/statenode/internal/cli"
	"github.com/spf13/cobra"
)

var mcpOpts cli.MCPOptions

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long:  `Exposes the machine sessions as Model Context Protocol tools over stdio or SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpOpts.Options = opts

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.ServeMCP(sigCtx, mcpOpts, cli.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpOpts.SSE, "sse", false, "Serve over HTTP (SSE) instead of stdio")
	mcpCmd.Flags().IntVarP(&mcpOpts.Port, "port", "p", 8081, "Port for --sse")
}
