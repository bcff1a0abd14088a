package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/helmsync/cmd/helmsync/handlers"
)

// Migrate returns the command that applies database schema migrations.
func Migrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Migrate(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}
}
