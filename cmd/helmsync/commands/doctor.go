package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/helmsync/cmd/helmsync/handlers"
)

// Doctor returns the command for diagnosing the local setup.
//
// Optional flags:
//
//	--json: Output in JSON format
func Doctor() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, store connectivity and required tools",
		Long: `Check that helmsync can run with the current configuration.

  - Loads and validates the configuration
  - Connects to the desired-state store and counts its records
  - Looks up helm (required in cli driver mode) and kubectl

Examples:
  helmsync doctor
  helmsync doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), cmd.OutOrStdout(), configPath, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
