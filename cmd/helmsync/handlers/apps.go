package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/imamik/helmsync/internal/apps"
)

// CreateOptions are the fields of a new record.
type CreateOptions struct {
	ReleaseName  string
	ChartURL     string
	ChartVersion string
	Namespace    string
	ValuesFile   string
}

// UpdateOptions are the fields of an update. Nil fields are left unchanged.
type UpdateOptions struct {
	ChartURL     *string
	ChartVersion *string
	ValuesFile   string
}

// AppsList prints every record, including deleted ones.
func AppsList(ctx context.Context, w io.Writer, configPath string, jsonOutput bool) error {
	return withService(ctx, configPath, func(svc *apps.Service) error {
		list, err := svc.ListAll(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			if list == nil {
				list = []apps.ManagedApplication{}
			}
			return printJSON(w, list)
		}
		_, err = fmt.Fprint(w, renderAppsTable(list, isInteractiveTTY(w)))
		return err
	})
}

// AppsGet prints one record.
func AppsGet(ctx context.Context, w io.Writer, configPath, releaseName string, jsonOutput bool) error {
	return withService(ctx, configPath, func(svc *apps.Service) error {
		app, err := svc.FindByName(ctx, releaseName)
		if err != nil {
			return err
		}
		return printApp(w, app, jsonOutput)
	})
}

// AppsCreate stores a new running record.
func AppsCreate(ctx context.Context, w io.Writer, configPath string, opts CreateOptions) error {
	app := apps.ManagedApplication{
		ReleaseName:  opts.ReleaseName,
		ChartURL:     opts.ChartURL,
		ChartVersion: opts.ChartVersion,
		Namespace:    opts.Namespace,
	}
	if opts.ValuesFile != "" {
		values, err := readValuesFile(opts.ValuesFile)
		if err != nil {
			return err
		}
		app.Values = values
	}

	return withService(ctx, configPath, func(svc *apps.Service) error {
		created, err := svc.Create(ctx, app)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Created %s in namespace %s\n", created.ReleaseName, created.Namespace)
		return err
	})
}

// AppsUpdate changes fields of an existing record. The reconciler upgrades
// the release on its next sweep.
func AppsUpdate(ctx context.Context, w io.Writer, configPath, releaseName string, opts UpdateOptions) error {
	patch := apps.Patch{
		ChartURL:     opts.ChartURL,
		ChartVersion: opts.ChartVersion,
	}
	if opts.ValuesFile != "" {
		values, err := readValuesFile(opts.ValuesFile)
		if err != nil {
			return err
		}
		patch.Values = values
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update, pass at least one of --chart, --version or --values")
	}

	return withService(ctx, configPath, func(svc *apps.Service) error {
		updated, err := svc.UpdateFields(ctx, releaseName, patch)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Updated %s\n", updated.ReleaseName)
		return err
	})
}

// AppsDelete marks a record deleted. The reconciler uninstalls the release
// on its next sweep.
func AppsDelete(ctx context.Context, w io.Writer, configPath, releaseName string) error {
	return withService(ctx, configPath, func(svc *apps.Service) error {
		if _, err := svc.MarkDeleted(ctx, releaseName); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Marked %s deleted\n", releaseName)
		return err
	})
}

// AppsPurge permanently removes a deleted record.
func AppsPurge(ctx context.Context, w io.Writer, configPath, releaseName string) error {
	return withService(ctx, configPath, func(svc *apps.Service) error {
		if err := svc.Purge(ctx, releaseName); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Purged %s\n", releaseName)
		return err
	})
}

// readValuesFile reads a YAML or JSON values document.
func readValuesFile(path string) (apps.Values, error) {
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file: %w", err)
	}

	values, err := apps.FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse values file %s: %w", path, err)
	}
	return values, nil
}

func printApp(w io.Writer, app apps.ManagedApplication, jsonOutput bool) error {
	if jsonOutput {
		return printJSON(w, app)
	}
	out, err := renderApp(app, isInteractiveTTY(w))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
