// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// configPath is shared by every command through the persistent --config flag.
var configPath string

// Root returns the root command for the helmsync CLI.
func Root() *cobra.Command {
	zapOpts := zap.Options{
		Development: os.Getenv("DEBUG") == "true",
	}
	goFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	zapOpts.BindFlags(goFlags)

	cmd := &cobra.Command{
		Use:   "helmsync",
		Short: "Keep helm releases in sync with a database of desired applications",
		Long: `helmsync reconciles helm releases against desired-state records.

Each record names a release, a chart, a namespace and a values document.
A running record is installed or upgraded until the release matches it; a
deleted record has its release uninstalled. Records are managed through the
HTTP API served by 'helmsync serve' or the 'helmsync apps' commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts)))
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: helmsync.yaml if present)")
	cmd.PersistentFlags().AddGoFlagSet(goFlags)

	// Core commands
	cmd.AddCommand(Serve())
	cmd.AddCommand(Sweep())
	cmd.AddCommand(Apps())
	cmd.AddCommand(Migrate())

	// Utility commands
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
