package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/helmsync/cmd/helmsync/handlers"
)

// Serve returns the command that runs the reconciler and the HTTP API.
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation loop and the HTTP API",
		Long: `Run the reconciliation loop and the HTTP API until interrupted.

A sweep runs immediately and then every configured interval. The process
also serves prometheus metrics and health probes. With leader election
enabled only the elected replica runs sweeps; every replica serves the API.

Pending schema migrations are applied on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath, version)
		},
	}
}
