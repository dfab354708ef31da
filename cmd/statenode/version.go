package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/statenode"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of statenode",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statenode version %s\n", strings.TrimSpace(statenode.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
