package main

import (
	"os"

	"github.com/aretw0/statenode/internal/cli"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runOpts cli.RunOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a machine from stdin",
	Long: `Reads one trigger per line from stdin and writes the resulting state to stdout.
With --json each line is a JSON object (or string) and each output is a JSON object.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runOpts.Options = opts

		interactive := !runOpts.JSON && term.IsTerminal(int(os.Stdin.Fd()))
		quiet, _ := cmd.Flags().GetBool("quiet")
		runOpts.Interactive = interactive && !quiet
		runOpts.Profile = termenv.NewOutput(os.Stderr).EnvColorProfile()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Run(sigCtx, runOpts, cli.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runOpts.JSON, "json", false, "Use JSON lines for input and output")
	runCmd.Flags().StringVarP(&runOpts.Key, "key", "k", "", "Persistence key (default persistKey, then the machine name)")
	runCmd.Flags().BoolVar(&runOpts.Fresh, "fresh", false, "Delete the saved state before starting")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and status line")
}
