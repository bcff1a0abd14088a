package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/helmsync/cmd/helmsync/handlers"
)

// Apps returns the command group for managing desired-state records.
func Apps() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Manage desired-state records",
	}

	cmd.AddCommand(appsList())
	cmd.AddCommand(appsGet())
	cmd.AddCommand(appsCreate())
	cmd.AddCommand(appsUpdate())
	cmd.AddCommand(appsDelete())
	cmd.AddCommand(appsPurge())

	return cmd
}

func appsList() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all records, including deleted ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.AppsList(cmd.Context(), cmd.OutOrStdout(), configPath, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func appsGet() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get RELEASE",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.AppsGet(cmd.Context(), cmd.OutOrStdout(), configPath, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func appsCreate() *cobra.Command {
	var opts handlers.CreateOptions

	cmd := &cobra.Command{
		Use:   "create RELEASE",
		Short: "Create a record; the release is installed on the next sweep",
		Example: `  helmsync apps create nginx --chart oci://registry-1.docker.io/bitnamicharts/nginx \
    --version 15.0.0 --namespace web --values values.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ReleaseName = args[0]
			return handlers.AppsCreate(cmd.Context(), cmd.OutOrStdout(), configPath, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ChartURL, "chart", "", "Chart reference: repo/chart, local path, or oci/http(s) URL")
	cmd.Flags().StringVar(&opts.ChartVersion, "version", "", "Chart version or semver constraint (default: latest)")
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "Target namespace")
	cmd.Flags().StringVarP(&opts.ValuesFile, "values", "f", "", "YAML or JSON values file")
	_ = cmd.MarkFlagRequired("chart")
	_ = cmd.MarkFlagRequired("namespace")

	return cmd
}

func appsUpdate() *cobra.Command {
	var (
		chartURL, chartVersion string
		valuesFile             string
	)

	cmd := &cobra.Command{
		Use:   "update RELEASE",
		Short: "Change fields of a record; the release is upgraded on the next sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := handlers.UpdateOptions{ValuesFile: valuesFile}
			if cmd.Flags().Changed("chart") {
				opts.ChartURL = &chartURL
			}
			if cmd.Flags().Changed("version") {
				opts.ChartVersion = &chartVersion
			}
			return handlers.AppsUpdate(cmd.Context(), cmd.OutOrStdout(), configPath, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&chartURL, "chart", "", "New chart reference")
	cmd.Flags().StringVar(&chartVersion, "version", "", "New chart version; empty means latest")
	cmd.Flags().StringVarP(&valuesFile, "values", "f", "", "YAML or JSON file replacing the values document")

	return cmd
}

func appsDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RELEASE",
		Short: "Mark a record deleted; the release is uninstalled on the next sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.AppsDelete(cmd.Context(), cmd.OutOrStdout(), configPath, args[0])
		},
	}
}

func appsPurge() *cobra.Command {
	return &cobra.Command{
		Use:   "purge RELEASE",
		Short: "Permanently remove a deleted record",
		Long: `Permanently remove a deleted record.

Only records already marked deleted can be purged. Purge after the release
has been uninstalled, otherwise the release is left behind unmanaged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.AppsPurge(cmd.Context(), cmd.OutOrStdout(), configPath, args[0])
		},
	}
}
