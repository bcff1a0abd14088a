package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
)

const defaultDriverTimeout = 5 * time.Minute

// Reconciler reconciles desired-state records against deployed releases.
type Reconciler struct {
	store  desiredStateStore
	driver driver.Driver

	concurrency         int
	driverTimeout       time.Duration
	purgeAfterUninstall bool
	enableMetrics       bool
	newSweepID          func() string
	now                 func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithConcurrency sets how many records are reconciled in parallel.
// Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		r.concurrency = n
	}
}

// WithDriverTimeout bounds every single driver call.
func WithDriverTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		r.driverTimeout = d
	}
}

// WithPurgeAfterUninstall removes a deleted record from the store once its
// release is uninstalled.
func WithPurgeAfterUninstall(enabled bool) Option {
	return func(r *Reconciler) {
		r.purgeAfterUninstall = enabled
	}
}

// WithMetrics enables prometheus metrics.
func WithMetrics(enabled bool) Option {
	return func(r *Reconciler) {
		r.enableMetrics = enabled
	}
}

// WithSweepIDs overrides how sweep IDs are generated.
func WithSweepIDs(fn func() string) Option {
	return func(r *Reconciler) {
		r.newSweepID = fn
	}
}

// New creates a Reconciler reading desired state from store and acting
// through drv.
func New(store desiredStateStore, drv driver.Driver, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:         store,
		driver:        drv,
		concurrency:   1,
		driverTimeout: defaultDriverTimeout,
		newSweepID:    newSweepID,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// Reconcile brings one record's release in line with the record. It makes at
// most one mutating driver call and never modifies the record, except for
// the optional purge after an uninstall.
func (r *Reconciler) Reconcile(ctx context.Context, app apps.ManagedApplication) (Action, error) {
	logger := log.FromContext(ctx).WithValues("release", app.ReleaseName, "namespace", app.Namespace)
	ctx = logr.NewContext(ctx, logger)

	// A deleted record can still be uninstalled without its values.
	if app.LoadErr != nil && app.Status != apps.StatusDeleted {
		return NoAction, app.LoadErr
	}

	actual, err := r.status(ctx, app)
	if err != nil {
		return NoAction, fmt.Errorf("failed to get release status: %w", err)
	}
	if actual != nil && !actual.Deployed() {
		logger.Info("Release is not in deployed state", "helmStatus", actual.Status, "revision", actual.Revision)
	}

	action := Decide(app, actual)
	switch action {
	case InstallOrUpgrade:
		if actual == nil {
			logger.Info("Release not found in cluster, installing", "desired", app.Status)
		} else {
			logger.Info("Desired state is newer than deployed release, upgrading",
				"updatedAt", app.UpdatedAt, "lastDeployed", actual.LastDeployed)
		}
		if err := app.Validate(); err != nil {
			return action, err
		}
		if err := r.installOrUpgrade(ctx, app); err != nil {
			return action, err
		}
		logger.Info("Release deployed", "chart", app.ChartURL, "version", app.ChartVersion)

	case Uninstall:
		logger.Info("Release is marked deleted but present in cluster, uninstalling")
		if err := r.uninstall(ctx, app); err != nil {
			return action, err
		}
		logger.Info("Release uninstalled")
		if r.purgeAfterUninstall {
			if err := r.store.Purge(ctx, app.ReleaseName); err != nil {
				return action, fmt.Errorf("failed to purge record after uninstall: %w", err)
			}
			logger.Info("Record purged")
		}

	case NoAction:
		if app.Status == apps.StatusDeleted {
			logger.V(1).Info("Release is marked deleted and absent from cluster, nothing to do")
		} else {
			logger.V(1).Info("Release is up to date")
		}
	}

	return action, nil
}

func (r *Reconciler) status(ctx context.Context, app apps.ManagedApplication) (*driver.ReleaseStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, r.driverTimeout)
	defer cancel()
	return r.driver.Status(ctx, app.ReleaseName, app.Namespace)
}

func (r *Reconciler) installOrUpgrade(ctx context.Context, app apps.ManagedApplication) error {
	ctx, cancel := context.WithTimeout(ctx, r.driverTimeout)
	defer cancel()
	_, err := r.driver.InstallOrUpgrade(ctx, driver.InstallRequest{
		ReleaseName:  app.ReleaseName,
		ChartURL:     app.ChartURL,
		ChartVersion: app.ChartVersion,
		Namespace:    app.Namespace,
		Values:       app.Values,
	})
	return err
}

func (r *Reconciler) uninstall(ctx context.Context, app apps.ManagedApplication) error {
	ctx, cancel := context.WithTimeout(ctx, r.driverTimeout)
	defer cancel()
	_, err := r.driver.Uninstall(ctx, app.ReleaseName, app.Namespace)
	return err
}
