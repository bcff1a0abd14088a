package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/imamik/helmsync/internal/api"
	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/reconciler"
	"github.com/imamik/helmsync/internal/scheduler"
	"github.com/imamik/helmsync/internal/store"
)

const readinessTimeout = 2 * time.Second

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

// Factory variables for the serve command.
var (
	restConfig = func(kubeconfig string) (*rest.Config, error) {
		if kubeconfig != "" {
			return clientcmd.BuildConfigFromFlags("", kubeconfig)
		}
		return ctrl.GetConfig()
	}

	newManager = func(cfg *rest.Config, opts manager.Options) (manager.Manager, error) {
		return ctrl.NewManager(cfg, opts)
	}
)

// Serve runs the scheduler and the HTTP API until ctx is cancelled.
//
// The scheduler only runs on the elected leader when leader election is
// enabled; the API is served by every replica.
func Serve(ctx context.Context, configPath, version string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// The scheduler and API log under "helmsync"; setupLog is for startup only.
	baseLog := log.FromContext(ctx)
	runCtx := log.IntoContext(ctx, baseLog.WithName("helmsync"))
	setupLog := baseLog.WithName("setup")
	setupLog.Info("starting helmsync", "version", version, "driver", cfg.Driver.Mode, "store", cfg.Store.Driver)
	ctx = log.IntoContext(ctx, setupLog)

	if err := requireHelm(ctx, cfg); err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Store, store.Options{Migrate: true})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	drv, err := newDriver(cfg)
	if err != nil {
		return err
	}

	kubecfg, err := restConfig(cfg.Kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	mgr, err := newManager(kubecfg, managerOptions(cfg))
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	svc := apps.NewService(st)
	rec := reconciler.New(svc, drv, reconcilerOptions(cfg, true)...)

	if err := mgr.Add(scheduler.New(cfg.Interval, rec)); err != nil {
		return fmt.Errorf("unable to add scheduler: %w", err)
	}
	if err := mgr.Add(api.NewServer(cfg.API.BindAddress, svc, drv, cfg.DriverTimeout)); err != nil {
		return fmt.Errorf("unable to add API server: %w", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", storeReadyCheck(st)); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	setupLog.Info("starting manager",
		"interval", cfg.Interval.String(),
		"concurrency", cfg.Concurrency,
		"api", cfg.API.BindAddress)
	return mgr.Start(runCtx)
}

func managerOptions(cfg *config.Config) manager.Options {
	return ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: cfg.Metrics.BindAddress,
		},
		HealthProbeBindAddress:  cfg.Health.BindAddress,
		LeaderElection:          cfg.LeaderElection.Enabled,
		LeaderElectionID:        cfg.LeaderElection.ID,
		LeaderElectionNamespace: cfg.LeaderElection.Namespace,
		// The process exits right after the manager stops, so releasing
		// the lease on cancel is safe.
		LeaderElectionReleaseOnCancel: true,
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// storeReadyCheck reports ready while the store answers pings.
func storeReadyCheck(p pinger) healthz.Checker {
	return func(req *http.Request) error {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("store not reachable: %w", err)
		}
		return nil
	}
}
