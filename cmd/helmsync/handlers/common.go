package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/driver"
	"github.com/imamik/helmsync/internal/driver/helmcli"
	"github.com/imamik/helmsync/internal/driver/helmsdk"
	"github.com/imamik/helmsync/internal/reconciler"
	"github.com/imamik/helmsync/internal/store"
	"github.com/imamik/helmsync/internal/util/prerequisites"
)

// defaultConfigFile is picked up from the working directory when no
// --config flag is given.
const defaultConfigFile = "helmsync.yaml"

// Factory variables for testing. Override these in tests to inject mocks.
var (
	openStore = func(ctx context.Context, cfg config.StoreConfig, opts store.Options) (*store.Store, error) {
		return store.Open(ctx, cfg, opts)
	}

	newDriver = buildDriver

	checkTools = prerequisites.Check

	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" && fileExists(defaultConfigFile) {
		path = defaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildDriver creates the deployment driver selected by the configuration.
func buildDriver(cfg *config.Config) (driver.Driver, error) {
	switch cfg.Driver.Mode {
	case config.DriverSDK:
		d, err := helmsdk.New(helmsdk.Options{
			Kubeconfig:      cfg.Kubeconfig,
			CreateNamespace: cfg.Driver.CreateNamespace,
			Wait:            cfg.Driver.Wait,
			Timeout:         cfg.DriverTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create helm SDK driver: %w", err)
		}
		return d, nil
	case config.DriverCLI:
		return helmcli.New(helmcli.Options{
			Binary:          cfg.Driver.HelmBinary,
			Kubeconfig:      cfg.Kubeconfig,
			CreateNamespace: cfg.Driver.CreateNamespace,
			Wait:            cfg.Driver.Wait,
			Timeout:         cfg.DriverTimeout,
		}, nil), nil
	default:
		return nil, fmt.Errorf("unknown driver mode %q", cfg.Driver.Mode)
	}
}

// requireHelm fails when the CLI driver is selected and the helm binary
// cannot be found.
func requireHelm(ctx context.Context, cfg *config.Config) error {
	if cfg.Driver.Mode != config.DriverCLI {
		return nil
	}
	results := checkTools(ctx, []prerequisites.Tool{prerequisites.Helm(cfg.Driver.HelmBinary, true)})
	return results.Error()
}

func reconcilerOptions(cfg *config.Config, withMetrics bool) []reconciler.Option {
	return []reconciler.Option{
		reconciler.WithConcurrency(cfg.Concurrency),
		reconciler.WithDriverTimeout(cfg.DriverTimeout),
		reconciler.WithPurgeAfterUninstall(cfg.PurgeAfterUninstall),
		reconciler.WithMetrics(withMetrics),
	}
}

// withService opens the configured store for the duration of fn.
func withService(ctx context.Context, configPath string, fn func(*apps.Service) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Store, store.Options{})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	return fn(apps.NewService(st))
}

// isInteractiveTTY reports whether w is a terminal.
func isInteractiveTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
