package main

import (
	"github.com/aretw0/statenode/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the machine as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) of the states and transitions. --session highlights the saved state of a session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		return cli.Graph(cmd.Context(), opts, cmd.OutOrStdout(), sessionID)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the current state of this session")
}
