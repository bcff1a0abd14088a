package reconciler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
)

// MockDriver is a mock implementation of driver.Driver for testing.
type MockDriver struct {
	mu sync.Mutex

	// Configurable responses
	InstallOrUpgradeFunc func(ctx context.Context, req driver.InstallRequest) (string, error)
	StatusFunc           func(ctx context.Context, releaseName, namespace string) (*driver.ReleaseStatus, error)
	UninstallFunc        func(ctx context.Context, releaseName, namespace string) (string, error)

	// Call tracking
	InstallOrUpgradeCalls []driver.InstallRequest
	StatusCalls           []string
	UninstallCalls        []string
}

func (m *MockDriver) InstallOrUpgrade(ctx context.Context, req driver.InstallRequest) (string, error) {
	m.mu.Lock()
	m.InstallOrUpgradeCalls = append(m.InstallOrUpgradeCalls, req)
	m.mu.Unlock()

	if m.InstallOrUpgradeFunc != nil {
		return m.InstallOrUpgradeFunc(ctx, req)
	}
	return "", nil
}

func (m *MockDriver) Status(ctx context.Context, releaseName, namespace string) (*driver.ReleaseStatus, error) {
	m.mu.Lock()
	m.StatusCalls = append(m.StatusCalls, releaseName)
	m.mu.Unlock()

	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, releaseName, namespace)
	}
	return nil, nil
}

func (m *MockDriver) Uninstall(ctx context.Context, releaseName, namespace string) (string, error) {
	m.mu.Lock()
	m.UninstallCalls = append(m.UninstallCalls, releaseName)
	m.mu.Unlock()

	if m.UninstallFunc != nil {
		return m.UninstallFunc(ctx, releaseName, namespace)
	}
	return "", nil
}

// MockStore is a mock implementation of desiredStateStore for testing.
type MockStore struct {
	mu sync.Mutex

	Apps        []apps.ManagedApplication
	ListAllFunc func(ctx context.Context) ([]apps.ManagedApplication, error)
	PurgeFunc   func(ctx context.Context, releaseName string) error

	PurgeCalls []string
}

func (m *MockStore) ListAll(ctx context.Context) ([]apps.ManagedApplication, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]apps.ManagedApplication(nil), m.Apps...), nil
}

func (m *MockStore) Purge(ctx context.Context, releaseName string) error {
	m.mu.Lock()
	m.PurgeCalls = append(m.PurgeCalls, releaseName)
	m.mu.Unlock()

	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, releaseName)
	}
	return nil
}

// fakeCluster is a driver.Driver keeping releases in memory, stamping
// LastDeployed with its clock on every install or upgrade.
type fakeCluster struct {
	mu       sync.Mutex
	now      func() time.Time
	releases map[string]*driver.ReleaseStatus
	installs int
	removes  int
}

func newFakeCluster(now func() time.Time) *fakeCluster {
	return &fakeCluster{now: now, releases: make(map[string]*driver.ReleaseStatus)}
}

func (c *fakeCluster) InstallOrUpgrade(_ context.Context, req driver.InstallRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.installs++
	key := req.Namespace + "/" + req.ReleaseName
	rev := 1
	if prev, ok := c.releases[key]; ok {
		rev = prev.Revision + 1
	}
	c.releases[key] = &driver.ReleaseStatus{
		Name: req.ReleaseName, Namespace: req.Namespace, Revision: rev,
		Status: driver.StatusDeployed, LastDeployed: c.now(),
	}
	return "deployed", nil
}

func (c *fakeCluster) Status(_ context.Context, releaseName, namespace string) (*driver.ReleaseStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rel, ok := c.releases[namespace+"/"+releaseName]
	if !ok {
		return nil, nil
	}
	cp := *rel
	return &cp, nil
}

func (c *fakeCluster) Uninstall(_ context.Context, releaseName, namespace string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removes++
	delete(c.releases, namespace+"/"+releaseName)
	return "uninstalled", nil
}

// logSink collects formatted log lines.
type logSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *logSink) logger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lines = append(s.lines, prefix+" "+args)
	}, funcr.Options{Verbosity: 1})
}

// contains reports whether a single log line contains every part.
func (s *logSink) contains(parts ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.lines {
		ok := true
		for _, p := range parts {
			if !strings.Contains(line, p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
