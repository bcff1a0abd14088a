// Package helmsdk implements the deployment driver on the Helm Go SDK,
// talking to the cluster directly instead of through the helm binary.
package helmsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/registry"
	"helm.sh/helm/v3/pkg/release"
	helmdriver "helm.sh/helm/v3/pkg/storage/driver"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/driver"
)

// storageDriver is where helm keeps release records.
const storageDriver = "secret"

// Options configures the SDK driver.
type Options struct {
	// Kubeconfig is a kubeconfig path. Empty uses the default loading rules.
	Kubeconfig string

	CreateNamespace bool
	Wait            bool

	// Timeout bounds helm's own waiting for resources when Wait is set.
	Timeout time.Duration
}

// ConfigFactory returns a helm action configuration for a namespace. It is
// called once per driver call and must return a fresh configuration each
// time, since concurrent calls may target the same namespace.
type ConfigFactory func(namespace string) (*action.Configuration, error)

// Driver runs helm actions in-process. It is safe for concurrent use.
type Driver struct {
	opts      Options
	settings  *cli.EnvSettings
	newConfig ConfigFactory
}

var _ driver.Driver = (*Driver)(nil)

// New creates an SDK driver against the configured cluster.
func New(opts Options) (*Driver, error) {
	settings := cli.New()

	registryClient, err := registry.NewClient(
		registry.ClientOptDebug(false),
		registry.ClientOptWriter(io.Discard),
		registry.ClientOptCredentialsFile(settings.RegistryConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}

	getters := &getterCache{path: opts.Kubeconfig, byNamespace: make(map[string]*restClientGetter)}

	d := newDriver(opts, settings, nil)
	d.newConfig = func(namespace string) (*action.Configuration, error) {
		getter := getters.get(namespace)
		cfg := new(action.Configuration)
		// Initialize with a no-op logger (suppress debug output)
		if err := cfg.Init(getter, namespace, storageDriver, func(string, ...interface{}) {}); err != nil {
			return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
		}
		cfg.RegistryClient = registryClient
		return cfg, nil
	}
	return d, nil
}

// NewWithConfigFactory creates a driver whose action configurations come
// from factory.
func NewWithConfigFactory(opts Options, settings *cli.EnvSettings, factory ConfigFactory) *Driver {
	if settings == nil {
		settings = cli.New()
	}
	return newDriver(opts, settings, factory)
}

func newDriver(opts Options, settings *cli.EnvSettings, factory ConfigFactory) *Driver {
	return &Driver{
		opts:      opts,
		settings:  settings,
		newConfig: factory,
	}
}

// config builds the action configuration for a single call. Helm's
// configuration holds per-action state and is not shared between calls.
func (d *Driver) config(namespace string) (*action.Configuration, error) {
	return d.newConfig(namespace)
}

// getterCache keeps one REST client getter per namespace so the kubeconfig
// is resolved once per namespace rather than once per call.
type getterCache struct {
	path string

	mu          sync.Mutex
	byNamespace map[string]*restClientGetter
}

func (c *getterCache) get(namespace string) *restClientGetter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.byNamespace[namespace]; ok {
		return g
	}
	g := newRESTClientGetter(c.path, namespace)
	c.byNamespace[namespace] = g
	return g
}

// InstallOrUpgrade installs the chart, or upgrades the release if it has
// a live revision.
func (d *Driver) InstallOrUpgrade(ctx context.Context, req driver.InstallRequest) (_ string, err error) {
	defer func(start time.Time) { driver.RecordCall(driver.OpInstallOrUpgrade, start, err) }(time.Now())

	fail := func(err error) error {
		return &driver.DriverInvocationError{
			Operation: driver.OpInstallOrUpgrade, Release: req.ReleaseName, Namespace: req.Namespace, Err: err,
		}
	}

	cfg, err := d.config(req.Namespace)
	if err != nil {
		return "", fail(err)
	}

	exists, err := d.hasLiveRevision(cfg, req.ReleaseName)
	if err != nil {
		return "", fail(err)
	}

	chrt, err := d.loadChart(cfg, req.ChartURL, req.ChartVersion)
	if err != nil {
		return "", fail(fmt.Errorf("failed to load chart: %w", err))
	}

	values := req.Values
	if values == nil {
		values = map[string]any{}
	}

	logger := log.FromContext(ctx).WithValues("release", req.ReleaseName, "namespace", req.Namespace)

	var rel *release.Release
	if exists {
		logger.V(1).Info("Upgrading release", "chart", req.ChartURL, "version", req.ChartVersion)
		upgrade := action.NewUpgrade(cfg)
		upgrade.Namespace = req.Namespace
		upgrade.Version = req.ChartVersion
		upgrade.Wait = d.opts.Wait
		upgrade.Timeout = d.opts.Timeout
		upgrade.ResetValues = true
		rel, err = upgrade.RunWithContext(ctx, req.ReleaseName, chrt, values)
	} else {
		logger.V(1).Info("Installing release", "chart", req.ChartURL, "version", req.ChartVersion)
		install := action.NewInstall(cfg)
		install.ReleaseName = req.ReleaseName
		install.Namespace = req.Namespace
		install.CreateNamespace = d.opts.CreateNamespace
		install.Version = req.ChartVersion
		install.Wait = d.opts.Wait
		install.Timeout = d.opts.Timeout
		// A release uninstalled with kept history still holds its name.
		install.Replace = true
		rel, err = install.RunWithContext(ctx, chrt, values)
	}
	if err != nil {
		return "", fail(err)
	}
	return describe(rel), nil
}

// Status reports the release's latest revision, or nil if there is none or
// it was uninstalled.
func (d *Driver) Status(ctx context.Context, releaseName, namespace string) (_ *driver.ReleaseStatus, err error) {
	defer func(start time.Time) { driver.RecordCall(driver.OpStatus, start, err) }(time.Now())

	fail := func(err error) error {
		return &driver.DriverInvocationError{
			Operation: driver.OpStatus, Release: releaseName, Namespace: namespace, Err: err,
		}
	}

	cfg, err := d.config(namespace)
	if err != nil {
		return nil, fail(err)
	}

	rel, err := runWithContext(ctx, func() (*release.Release, error) {
		return action.NewStatus(cfg).Run(releaseName)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fail(err)
	}

	status := toReleaseStatus(rel)
	if status.Status == driver.StatusUninstalled {
		return nil, nil
	}
	return status, nil
}

// Uninstall removes the release.
func (d *Driver) Uninstall(ctx context.Context, releaseName, namespace string) (_ string, err error) {
	defer func(start time.Time) { driver.RecordCall(driver.OpUninstall, start, err) }(time.Now())

	fail := func(err error) error {
		return &driver.DriverInvocationError{
			Operation: driver.OpUninstall, Release: releaseName, Namespace: namespace, Err: err,
		}
	}

	cfg, err := d.config(namespace)
	if err != nil {
		return "", fail(err)
	}

	resp, err := runWithContext(ctx, func() (*release.UninstallReleaseResponse, error) {
		uninstall := action.NewUninstall(cfg)
		uninstall.Wait = d.opts.Wait
		uninstall.Timeout = d.opts.Timeout
		return uninstall.Run(releaseName)
	})
	if err != nil {
		return "", fail(err)
	}
	if resp != nil && resp.Info != "" {
		return resp.Info, nil
	}
	return fmt.Sprintf("release %q uninstalled", releaseName), nil
}

func (d *Driver) hasLiveRevision(cfg *action.Configuration, releaseName string) (bool, error) {
	history := action.NewHistory(cfg)
	history.Max = 1
	revisions, err := history.Run(releaseName)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read release history: %w", err)
	}
	for _, rel := range revisions {
		if rel.Info != nil && rel.Info.Status != release.StatusUninstalled {
			return true, nil
		}
	}
	return false, nil
}

func (d *Driver) loadChart(cfg *action.Configuration, ref, version string) (*chart.Chart, error) {
	locator := action.NewInstall(cfg)
	locator.Version = version

	chartPath, err := locator.LocateChart(ref, d.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to find chart %s: %w", ref, err)
	}
	return loader.Load(chartPath)
}

func isNotFound(err error) bool {
	return errors.Is(err, helmdriver.ErrReleaseNotFound) ||
		strings.Contains(err.Error(), helmdriver.ErrReleaseNotFound.Error())
}

func toReleaseStatus(rel *release.Release) *driver.ReleaseStatus {
	status := &driver.ReleaseStatus{
		Name:      rel.Name,
		Namespace: rel.Namespace,
		Revision:  rel.Version,
	}
	if rel.Info != nil {
		status.Status = rel.Info.Status.String()
		status.LastDeployed = rel.Info.LastDeployed.Time
	}
	if rel.Chart != nil && rel.Chart.Metadata != nil {
		status.Chart = rel.Chart.Metadata.Name
		status.ChartVersion = rel.Chart.Metadata.Version
	}
	return status
}

func describe(rel *release.Release) string {
	if rel == nil || rel.Info == nil {
		return ""
	}
	return fmt.Sprintf("release %q revision %d: %s", rel.Name, rel.Version, rel.Info.Status)
}

// runWithContext runs fn and returns early when ctx ends. helm's status and
// uninstall actions take no context; fn keeps running in the background.
func runWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn()
		done <- result{val, err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
