package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/reconciler"
	"github.com/imamik/helmsync/internal/store"
)

// SweepReport is the JSON form of a sweep result.
type SweepReport struct {
	ID          string         `json:"id"`
	StartedAt   time.Time      `json:"startedAt"`
	Duration    string         `json:"duration"`
	Total       int            `json:"total"`
	Running     int            `json:"running"`
	Installed   int            `json:"installed"`
	Uninstalled int            `json:"uninstalled"`
	Unchanged   int            `json:"unchanged"`
	Failed      int            `json:"failed"`
	Records     []RecordReport `json:"records"`
}

// RecordReport is the outcome for one record.
type RecordReport struct {
	ReleaseName string `json:"releaseName"`
	Namespace   string `json:"namespace"`
	Action      string `json:"action"`
	Error       string `json:"error,omitempty"`
}

// Sweep runs a single reconciliation sweep and reports the outcome. It
// fails if any record failed.
func Sweep(ctx context.Context, w io.Writer, configPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx = log.IntoContext(ctx, ctrl.Log.WithName("sweep"))

	if err := requireHelm(ctx, cfg); err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Store, store.Options{})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	drv, err := newDriver(cfg)
	if err != nil {
		return err
	}

	rec := reconciler.New(apps.NewService(st), drv, reconcilerOptions(cfg, false)...)
	res, err := rec.RunSweep(ctx)
	if reconciler.IsStoreUnavailable(err) {
		return fmt.Errorf("no records were reconciled: %w", err)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		err = printJSON(w, newSweepReport(res))
	} else {
		_, err = fmt.Fprint(w, renderSweep(res, isInteractiveTTY(w)))
	}
	if err != nil {
		return err
	}

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d records failed to reconcile", res.Failed, res.Total)
	}
	return nil
}

func newSweepReport(res *reconciler.SweepResult) SweepReport {
	report := SweepReport{
		ID:          res.ID,
		StartedAt:   res.StartedAt,
		Duration:    res.Duration.String(),
		Total:       res.Total,
		Running:     res.Running,
		Installed:   res.Installed,
		Uninstalled: res.Uninstalled,
		Unchanged:   res.Unchanged,
		Failed:      res.Failed,
		Records:     make([]RecordReport, 0, len(res.Records)),
	}
	for _, rec := range res.Records {
		r := RecordReport{
			ReleaseName: rec.ReleaseName,
			Namespace:   rec.Namespace,
			Action:      rec.Action.String(),
		}
		if rec.Err != nil {
			r.Error = rec.Err.Error()
		}
		report.Records = append(report.Records, r)
	}
	return report
}
