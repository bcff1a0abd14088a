// Package main is the entry point for the helmsync CLI.
//
// helmsync keeps helm releases in a Kubernetes cluster in line with a
// database of desired applications. It runs as a long-lived service
// ('helmsync serve') or as one-shot commands.
//
// For detailed usage information, run:
//
//	helmsync --help
package main

import (
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/imamik/helmsync/cmd/helmsync/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
