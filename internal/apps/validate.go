package apps

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"k8s.io/apimachinery/pkg/util/validation"
)

// MaxReleaseNameLength is the longest release name helm accepts.
const MaxReleaseNameLength = 53

var allowedChartSchemes = map[string]bool{
	"oci":   true,
	"http":  true,
	"https": true,
}

// Validate checks every field needed to describe a deployment.
func (a ManagedApplication) Validate() error {
	if a.LoadErr != nil {
		return a.LoadErr
	}
	if err := ValidateReleaseName(a.ReleaseName); err != nil {
		return err
	}
	if err := ValidateNamespace(a.Namespace); err != nil {
		return err
	}
	if err := ValidateChartRef(a.ChartURL, a.ChartVersion); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return &ConfigurationError{Field: "status", Err: fmt.Errorf("unknown status %q", a.Status)}
	}
	return a.Values.Validate()
}

// ValidateReleaseName checks a release name against helm's naming rules.
func ValidateReleaseName(name string) error {
	if name == "" {
		return &ConfigurationError{Field: "releaseName", Err: errors.New("is required")}
	}
	if len(name) > MaxReleaseNameLength {
		return &ConfigurationError{Field: "releaseName", Err: fmt.Errorf("must be at most %d characters", MaxReleaseNameLength)}
	}
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return &ConfigurationError{Field: "releaseName", Err: errors.New(strings.Join(errs, "; "))}
	}
	return nil
}

// ValidateNamespace checks that ns is a valid Kubernetes namespace name.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return &ConfigurationError{Field: "namespace", Err: errors.New("is required")}
	}
	if errs := validation.IsDNS1123Label(ns); len(errs) > 0 {
		return &ConfigurationError{Field: "namespace", Err: errors.New(strings.Join(errs, "; "))}
	}
	return nil
}

// ValidateChartRef checks the chart reference and version.
//
// The reference may be a repo/chart name, a local path, or an oci, http or
// https URL. An empty version means the latest chart; otherwise it must parse
// as a semver constraint, which covers exact versions as well.
func ValidateChartRef(chartURL, version string) error {
	if strings.TrimSpace(chartURL) == "" {
		return &ConfigurationError{Field: "chartUrl", Err: errors.New("is required")}
	}
	if strings.ContainsAny(chartURL, " \t\n") {
		return &ConfigurationError{Field: "chartUrl", Err: errors.New("must not contain whitespace")}
	}
	// A leading dash would be read as a flag by the helm binary.
	if strings.HasPrefix(chartURL, "-") {
		return &ConfigurationError{Field: "chartUrl", Err: errors.New("must not start with '-'")}
	}
	if strings.Contains(chartURL, "://") {
		u, err := url.Parse(chartURL)
		if err != nil {
			return &ConfigurationError{Field: "chartUrl", Err: err}
		}
		if !allowedChartSchemes[u.Scheme] {
			return &ConfigurationError{Field: "chartUrl", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
		}
		if u.Host == "" {
			return &ConfigurationError{Field: "chartUrl", Err: errors.New("missing host")}
		}
	}

	if version == "" {
		return nil
	}
	if strings.HasPrefix(version, "-") {
		return &ConfigurationError{Field: "chartVersion", Err: errors.New("must not start with '-'")}
	}
	if _, err := semver.NewConstraint(version); err != nil {
		return &ConfigurationError{Field: "chartVersion", Err: err}
	}
	return nil
}
