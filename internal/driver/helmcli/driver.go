// Package helmcli implements the deployment driver by invoking the helm
// binary.
package helmcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"helm.sh/helm/v3/pkg/release"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
)

// notFoundMarker is what helm prints when a release does not exist.
const notFoundMarker = "release: not found"

// Options configures the CLI driver.
type Options struct {
	// Binary is the helm executable. Defaults to "helm".
	Binary string

	// Kubeconfig is passed to helm with --kubeconfig when set.
	Kubeconfig string

	CreateNamespace bool
	Wait            bool

	// Timeout is passed to helm's --timeout for install and uninstall
	// when Wait is set.
	Timeout time.Duration
}

// Driver runs helm as a child process.
type Driver struct {
	opts   Options
	runner Runner
}

var _ driver.Driver = (*Driver)(nil)

// New creates a CLI driver. A nil runner uses [ExecRunner].
func New(opts Options, runner Runner) *Driver {
	if opts.Binary == "" {
		opts.Binary = "helm"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Driver{opts: opts, runner: runner}
}

// InstallOrUpgrade runs "helm upgrade --install" with the values document
// piped to stdin as YAML.
func (d *Driver) InstallOrUpgrade(ctx context.Context, req driver.InstallRequest) (out string, err error) {
	defer func(start time.Time) { driver.RecordCall(driver.OpInstallOrUpgrade, start, err) }(time.Now())

	values, err := apps.Values(req.Values).ToYAML()
	if err != nil {
		return "", &driver.DriverInvocationError{
			Operation: driver.OpInstallOrUpgrade, Release: req.ReleaseName, Namespace: req.Namespace, Err: err,
		}
	}

	args := []string{"upgrade", "--install", "--namespace", req.Namespace}
	if req.ChartVersion != "" {
		args = append(args, "--version", req.ChartVersion)
	}
	if d.opts.CreateNamespace {
		args = append(args, "--create-namespace")
	}
	args = append(args, d.waitArgs()...)
	args = append(args, d.globalArgs()...)
	args = append(args, "--values", "-", "--", req.ReleaseName, req.ChartURL)

	return d.run(ctx, driver.OpInstallOrUpgrade, req.ReleaseName, req.Namespace, values, args)
}

// Status runs "helm status -o json". A release helm reports as not found,
// or as uninstalled, is returned as nil.
func (d *Driver) Status(ctx context.Context, releaseName, namespace string) (_ *driver.ReleaseStatus, err error) {
	defer func(start time.Time) { driver.RecordCall(driver.OpStatus, start, err) }(time.Now())

	args := []string{"status", "--namespace", namespace, "--output", "json"}
	args = append(args, d.globalArgs()...)
	args = append(args, "--", releaseName)

	stdout, stderr, runErr := d.runner.Run(ctx, nil, d.opts.Binary, args...)
	if runErr != nil {
		if strings.Contains(string(stderr), notFoundMarker) {
			return nil, nil
		}
		return nil, &driver.DriverInvocationError{
			Operation: driver.OpStatus, Release: releaseName, Namespace: namespace,
			Output: strings.TrimSpace(string(stderr)), Err: runErr,
		}
	}

	status, err := parseStatus(stdout)
	if err != nil {
		return nil, &driver.DriverInvocationError{
			Operation: driver.OpStatus, Release: releaseName, Namespace: namespace, Err: err,
		}
	}
	if status.Status == driver.StatusUninstalled {
		return nil, nil
	}
	return status, nil
}

// Uninstall runs "helm uninstall".
func (d *Driver) Uninstall(ctx context.Context, releaseName, namespace string) (out string, err error) {
	defer func(start time.Time) { driver.RecordCall(driver.OpUninstall, start, err) }(time.Now())

	args := []string{"uninstall", "--namespace", namespace}
	args = append(args, d.waitArgs()...)
	args = append(args, d.globalArgs()...)
	args = append(args, "--", releaseName)

	return d.run(ctx, driver.OpUninstall, releaseName, namespace, nil, args)
}

func (d *Driver) run(ctx context.Context, op, releaseName, namespace string, stdin []byte, args []string) (string, error) {
	logger := log.FromContext(ctx).WithValues("release", releaseName, "namespace", namespace)
	logger.V(1).Info("Executing helm", "args", args)

	stdout, stderr, err := d.runner.Run(ctx, stdin, d.opts.Binary, args...)
	if len(stderr) > 0 && err == nil {
		logger.Info("helm wrote to stderr", "stderr", strings.TrimSpace(string(stderr)))
	}
	if err != nil {
		return "", &driver.DriverInvocationError{
			Operation: op, Release: releaseName, Namespace: namespace,
			Output: strings.TrimSpace(string(stderr)), Err: err,
		}
	}
	logger.V(1).Info("helm finished", "stdout", string(stdout))
	return string(stdout), nil
}

func (d *Driver) globalArgs() []string {
	if d.opts.Kubeconfig == "" {
		return nil
	}
	return []string{"--kubeconfig", d.opts.Kubeconfig}
}

func (d *Driver) waitArgs() []string {
	if !d.opts.Wait {
		return nil
	}
	args := []string{"--wait"}
	if d.opts.Timeout > 0 {
		args = append(args, "--timeout", d.opts.Timeout.String())
	}
	return args
}

func parseStatus(data []byte) (*driver.ReleaseStatus, error) {
	var rel release.Release
	if err := json.Unmarshal(data, &rel); err != nil {
		return nil, fmt.Errorf("parse helm status output: %w", err)
	}
	if rel.Info == nil {
		return nil, fmt.Errorf("helm status output has no info section")
	}

	status := &driver.ReleaseStatus{
		Name:         rel.Name,
		Namespace:    rel.Namespace,
		Revision:     rel.Version,
		Status:       rel.Info.Status.String(),
		LastDeployed: rel.Info.LastDeployed.Time,
	}
	if rel.Chart != nil && rel.Chart.Metadata != nil {
		status.Chart = rel.Chart.Metadata.Name
		status.ChartVersion = rel.Chart.Metadata.Version
	}
	return status, nil
}
