//go:build integration

// Integration tests running the scheduler against a real reconciler backed
// by a SQLite store and an in-memory cluster.
//
// Run these tests with:
//
//	go test -v -tags=integration ./internal/scheduler/...
package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
	"github.com/imamik/helmsync/internal/reconciler"
	"github.com/imamik/helmsync/internal/store/sqlite"
	testutil "github.com/imamik/helmsync/internal/testing"
)

func TestSchedulerIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scheduler Integration Suite")
}

var _ = BeforeSuite(func() {
	logf.SetLogger(zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true)))
})

// memoryCluster is a driver.Driver keeping releases in memory.
type memoryCluster struct {
	mu       sync.Mutex
	releases map[string]*driver.ReleaseStatus
}

func (c *memoryCluster) InstallOrUpgrade(_ context.Context, req driver.InstallRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rev := 1
	if prev, ok := c.releases[req.ReleaseName]; ok {
		rev = prev.Revision + 1
	}
	c.releases[req.ReleaseName] = &driver.ReleaseStatus{
		Name: req.ReleaseName, Namespace: req.Namespace, Revision: rev,
		Status: driver.StatusDeployed, ChartVersion: req.ChartVersion, LastDeployed: time.Now(),
	}
	return "deployed", nil
}

func (c *memoryCluster) Status(_ context.Context, name, _ string) (*driver.ReleaseStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rel, ok := c.releases[name]
	if !ok {
		return nil, nil
	}
	cp := *rel
	return &cp, nil
}

func (c *memoryCluster) Uninstall(_ context.Context, name, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.releases, name)
	return "uninstalled", nil
}

func (c *memoryCluster) get(name string) *driver.ReleaseStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases[name]
}

var _ = Describe("Scheduler", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		svc     *apps.Service
		cluster *memoryCluster
		done    chan error
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())

		db, err := sqlite.Open(ctx, filepath.Join(GinkgoT().TempDir(), "apps.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		svc = apps.NewService(&sqlite.AppRepo{DB: db})
		cluster = &memoryCluster{releases: make(map[string]*driver.ReleaseStatus)}

		rec := reconciler.New(svc, cluster, reconciler.WithConcurrency(2))
		done = make(chan error, 1)
		go func() { done <- New(50*time.Millisecond, rec).Start(ctx) }()
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})

	It("installs, upgrades and uninstalls releases to follow the store", func() {
		_, err := svc.Create(ctx, testutil.NewAppBuilder("web").WithChart("bitnami/nginx", "18.2.4").Build())
		Expect(err).NotTo(HaveOccurred())

		By("installing a new running record")
		Eventually(func() *driver.ReleaseStatus { return cluster.get("web") }, 5*time.Second).ShouldNot(BeNil())
		Expect(cluster.get("web").Revision).To(Equal(1))

		By("leaving an up-to-date release alone")
		Consistently(func() int { return cluster.get("web").Revision }, 300*time.Millisecond).Should(Equal(1))

		By("upgrading after the record changes")
		version := "19.0.0"
		_, err = svc.UpdateFields(ctx, "web", apps.Patch{ChartVersion: &version})
		Expect(err).NotTo(HaveOccurred())
		Eventually(func() string { return cluster.get("web").ChartVersion }, 5*time.Second).Should(Equal("19.0.0"))

		By("uninstalling once the record is marked deleted")
		_, err = svc.MarkDeleted(ctx, "web")
		Expect(err).NotTo(HaveOccurred())
		Eventually(func() *driver.ReleaseStatus { return cluster.get("web") }, 5*time.Second).Should(BeNil())

		By("keeping the deleted record")
		app, err := svc.FindByName(ctx, "web")
		Expect(err).NotTo(HaveOccurred())
		Expect(app.Status).To(Equal(apps.StatusDeleted))
	})
})
