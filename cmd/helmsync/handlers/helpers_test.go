package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/driver"
	"github.com/imamik/helmsync/internal/util/prerequisites"
)

// writeConfig writes a config using a sqlite store in a temp dir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf("store:\n  driver: sqlite\n  dsn: %s\ndriver:\n  mode: sdk\n%s",
		filepath.Join(dir, "apps.db"), extra)
	path := filepath.Join(dir, "helmsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// MockDriver implements driver.Driver for testing.
type MockDriver struct {
	mu       sync.Mutex
	releases map[string]*driver.ReleaseStatus

	InstallErr error

	InstallCalls   []string
	UninstallCalls []string
}

func newMockDriver() *MockDriver {
	return &MockDriver{releases: make(map[string]*driver.ReleaseStatus)}
}

func (m *MockDriver) InstallOrUpgrade(_ context.Context, req driver.InstallRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InstallCalls = append(m.InstallCalls, req.Namespace+"/"+req.ReleaseName)
	if m.InstallErr != nil {
		return "", m.InstallErr
	}
	m.releases[req.Namespace+"/"+req.ReleaseName] = &driver.ReleaseStatus{
		Name:         req.ReleaseName,
		Namespace:    req.Namespace,
		Revision:     1,
		Status:       driver.StatusDeployed,
		LastDeployed: time.Now().UTC(),
	}
	return "deployed", nil
}

func (m *MockDriver) Status(_ context.Context, name, ns string) (*driver.ReleaseStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases[ns+"/"+name], nil
}

func (m *MockDriver) Uninstall(_ context.Context, name, ns string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UninstallCalls = append(m.UninstallCalls, ns+"/"+name)
	delete(m.releases, ns+"/"+name)
	return "uninstalled", nil
}

// useDriver makes handlers use drv for the rest of the test.
func useDriver(t *testing.T, drv driver.Driver) {
	t.Helper()
	orig := newDriver
	newDriver = func(*config.Config) (driver.Driver, error) { return drv, nil }
	t.Cleanup(func() { newDriver = orig })
}

// useTools fakes the tool lookup with the given set of installed tools.
func useTools(t *testing.T, installed ...string) {
	t.Helper()
	orig := checkTools
	checkTools = func(_ context.Context, tools []prerequisites.Tool) *prerequisites.CheckResults {
		results := &prerequisites.CheckResults{}
		for _, tool := range tools {
			res := prerequisites.CheckResult{Tool: tool}
			for _, name := range installed {
				if name == tool.Name {
					res.Found = true
					res.Path = "/usr/local/bin/" + name
					res.Version = "v0.0.0-test"
				}
			}
			if !res.Found {
				results.Missing = append(results.Missing, tool)
			}
			results.Results = append(results.Results, res)
		}
		return results
	}
	t.Cleanup(func() { checkTools = orig })
}
