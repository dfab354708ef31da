package main

import (
	"os"

	"github.com/aretw0/statenode/internal/cli"
	"github.com/spf13/cobra"
)

var serveOpts cli.ServeOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves one machine over HTTP. Every session ID is an independent instance
of the machine; outputs are streamed on /events (SSE).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serveOpts.Options = opts
		port, _ := cmd.Flags().GetString("port")
		serveOpts.Addr = ":" + port

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Serve(sigCtx, serveOpts, cli.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolVar(&serveOpts.Metrics, "metrics", true, "Expose Prometheus metrics on /metrics")
}
