// Package driver defines the deployment driver contract shared by the helm
// CLI and helm SDK implementations.
//
// A driver is a stateless gateway to the cluster: it installs or upgrades a
// release, reports a release's status, and uninstalls it. A release that does
// not exist is a normal outcome, reported by Status as a nil *ReleaseStatus
// with a nil error. Every other failure is a *DriverInvocationError.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrReleaseNotFound is matched by drivers to recognise an absent release.
// It never escapes Status.
var ErrReleaseNotFound = errors.New("release not found")

// Helm release states.
const (
	StatusDeployed    = "deployed"
	StatusUninstalled = "uninstalled"
)

// InstallRequest describes a desired deployment.
type InstallRequest struct {
	ReleaseName  string
	ChartURL     string
	ChartVersion string
	Namespace    string
	Values       map[string]any
}

// ReleaseStatus is the observed state of a deployed release.
type ReleaseStatus struct {
	Name         string    `json:"name"`
	Namespace    string    `json:"namespace"`
	Revision     int       `json:"revision"`
	Status       string    `json:"status"`
	Chart        string    `json:"chart,omitempty"`
	ChartVersion string    `json:"chartVersion,omitempty"`
	LastDeployed time.Time `json:"lastDeployed"`
}

// Deployed reports whether the release is in the deployed state.
func (s *ReleaseStatus) Deployed() bool {
	return s != nil && s.Status == StatusDeployed
}

// Driver is implemented by deployment backends.
type Driver interface {
	// InstallOrUpgrade installs the release, or upgrades it if it exists,
	// and returns the tool's output.
	InstallOrUpgrade(ctx context.Context, req InstallRequest) (string, error)

	// Status returns the release, or nil if it does not exist.
	Status(ctx context.Context, releaseName, namespace string) (*ReleaseStatus, error)

	// Uninstall removes the release and returns the tool's output.
	Uninstall(ctx context.Context, releaseName, namespace string) (string, error)
}

// DriverInvocationError reports a failed driver operation.
type DriverInvocationError struct {
	Operation string
	Release   string
	Namespace string
	// Output is the tool's combined error output, when there is any.
	Output string
	Err    error
}

func (e *DriverInvocationError) Error() string {
	msg := fmt.Sprintf("%s %s/%s failed", e.Operation, e.Namespace, e.Release)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *DriverInvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError reports whether err is a *DriverInvocationError.
func IsInvocationError(err error) bool {
	var invErr *DriverInvocationError
	return errors.As(err, &invErr)
}
