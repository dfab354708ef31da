package main

import (
	"os"

	"github.com/aretw0/statenode/internal/cli"
	"github.com/aretw0/statenode/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a machine definition",
	Long: `Builds the machine like a node would and reports unreachable states,
dead ends and transitions that can never fire.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		return cli.Validate(cmd.Context(), opts, cmd.OutOrStdout(), strict)
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe a machine definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		render := tui.PlainRenderer
		if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
			width, _, err := term.GetSize(fd)
			if err != nil || width <= 0 {
				width = 80
			}
			if r, err := tui.NewRenderer(width); err == nil {
				render = r
			}
		}
		return cli.Describe(cmd.Context(), opts, cmd.OutOrStdout(), render)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(describeCmd)
	validateCmd.Flags().Bool("strict", false, "Fail when the report has issues")
}
