package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/helmsync/cmd/helmsync/handlers"
)

// Sweep returns the command that runs a single reconciliation sweep.
//
// Optional flags:
//
//	--json: Output the sweep result as JSON
func Sweep() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation sweep and exit",
		Long: `Run one reconciliation sweep and exit.

The command exits non-zero if any record failed to reconcile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Sweep(cmd.Context(), cmd.OutOrStdout(), configPath, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
