package reconciler

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/util/async"
)

// RecordResult is the outcome of reconciling one record in a sweep.
type RecordResult struct {
	ReleaseName string
	Namespace   string
	Action      Action
	Err         error
}

// SweepResult summarizes a sweep.
type SweepResult struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Total       int
	Running     int
	Installed   int
	Uninstalled int
	Unchanged   int
	Failed      int
	Records     []RecordResult
}

// Failures returns the records that failed.
func (s *SweepResult) Failures() []RecordResult {
	var failed []RecordResult
	for _, rec := range s.Records {
		if rec.Err != nil {
			failed = append(failed, rec)
		}
	}
	return failed
}

// RunSweep reconciles every record listed at the start of the sweep. Records
// created or changed while it runs are picked up by the next sweep.
//
// Per-record failures are logged and counted in the result; they are not
// returned. The only error is a *StoreUnavailableError when listing fails.
func (r *Reconciler) RunSweep(ctx context.Context) (*SweepResult, error) {
	res := &SweepResult{ID: r.newSweepID(), StartedAt: r.now()}
	logger := log.FromContext(ctx).WithValues("sweep", res.ID)
	ctx = logr.NewContext(ctx, logger)

	logger.V(1).Info("Running sweep")

	snapshot, err := r.store.ListAll(ctx)
	if err != nil {
		err = &StoreUnavailableError{Err: err}
		logger.Error(err, "Sweep aborted, could not list desired state")
		r.recordSweep("store_unavailable", nil)
		return nil, err
	}

	res.Total = len(snapshot)
	res.Records = make([]RecordResult, len(snapshot))
	tasks := make([]async.Task, len(snapshot))
	for i, app := range snapshot {
		res.Records[i] = RecordResult{ReleaseName: app.ReleaseName, Namespace: app.Namespace}
		if app.Status == apps.StatusRunning {
			res.Running++
		}
		tasks[i] = async.Task{
			Name: app.ReleaseName,
			Func: func(ctx context.Context) error {
				action, err := r.Reconcile(ctx, app)
				res.Records[i].Action = action
				return err
			},
		}
	}

	for i, out := range async.Run(ctx, tasks, r.concurrency) {
		rec := &res.Records[i]
		rec.Err = out.Err
		r.recordRecord(rec.Action, rec.Err)

		if rec.Err != nil {
			res.Failed++
			logger.Error(rec.Err, "Failed to reconcile release",
				"release", rec.ReleaseName, "namespace", rec.Namespace, "action", rec.Action.String())
			continue
		}
		switch rec.Action {
		case InstallOrUpgrade:
			res.Installed++
		case Uninstall:
			res.Uninstalled++
		default:
			res.Unchanged++
		}
	}

	res.FinishedAt = r.now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)

	result := "success"
	if res.Failed > 0 {
		result = "partial"
	}
	r.recordSweep(result, res)

	logger.Info("Sweep finished",
		"total", res.Total,
		"installed", res.Installed,
		"uninstalled", res.Uninstalled,
		"unchanged", res.Unchanged,
		"failed", res.Failed,
		"duration", res.Duration.String())
	return res, nil
}

func newSweepID() string {
	return uuid.NewString()
}
