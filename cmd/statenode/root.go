package main

import (
	"fmt"
	"os"

	"github.com/aretw0/statenode/internal/cli"
	"github.com/spf13/cobra"
)

// opts holds the persistent flags shared by every command.
var opts = cli.DefaultOptions()

var rootCmd = &cobra.Command{
	Use:   "statenode",
	Short: "statenode runs deterministic finite state machines",
	Long: `statenode drives a finite state machine from a stream of triggers.
The machine is declared in a YAML/JSON file (--config) or in a markdown
library (--library + --machine); its state can be persisted to the local
filesystem or Redis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "Machine configuration file (YAML or JSON)")
	pf.StringVar(&opts.LibraryPath, "library", "", "Directory of machine documents")
	pf.StringVarP(&opts.Machine, "machine", "m", "", "Machine ID inside --library")
	pf.StringVar(&opts.Store, "store", opts.Store, "State store: memory, file or redis")
	pf.StringVar(&opts.StateDir, "state-dir", opts.StateDir, "Directory of the file store (default .statenode/state)")
	pf.StringVar(&opts.RedisAddr, "redis-addr", opts.RedisAddr, "Redis address for the redis store")
	pf.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug, info, warn or error")
	pf.BoolVar(&opts.LogJSON, "log-json", false, "Write logs as JSON")
}
