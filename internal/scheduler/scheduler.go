// Package scheduler runs reconciliation sweeps on a fixed interval.
//
// One sweep runs immediately on start and then one per tick. A tick that
// fires while a sweep is still running is skipped, never queued, so at most
// one sweep is in flight. Shutdown does not cancel a running sweep: Start
// returns once it completes.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/imamik/helmsync/internal/reconciler"
)

var ticksSkipped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "helmsync",
		Subsystem: "scheduler",
		Name:      "ticks_skipped_total",
		Help:      "Total number of ticks skipped because a sweep was still running",
	},
)

func init() {
	metrics.Registry.MustRegister(ticksSkipped)
}

// Sweeper runs one sweep. *reconciler.Reconciler satisfies it.
type Sweeper interface {
	RunSweep(ctx context.Context) (*reconciler.SweepResult, error)
}

// Scheduler triggers sweeps at a fixed interval.
type Scheduler struct {
	interval time.Duration
	sweeper  Sweeper

	running atomic.Bool
	wg      sync.WaitGroup
	skipped atomic.Int64
}

var (
	_ manager.Runnable               = (*Scheduler)(nil)
	_ manager.LeaderElectionRunnable = (*Scheduler)(nil)
)

// New creates a scheduler running sweeper every interval.
func New(interval time.Duration, sweeper Sweeper) *Scheduler {
	return &Scheduler{interval: interval, sweeper: sweeper}
}

// Start runs sweeps until ctx is cancelled, then waits for the sweep in
// flight, if any.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.interval)
	}
	logger := log.FromContext(ctx).WithName("scheduler")
	ctx = log.IntoContext(ctx, logger)
	logger.Info("Starting sweep scheduler", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping sweep scheduler, waiting for running sweep")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// NeedLeaderElection makes sweeps run only on the elected leader.
func (s *Scheduler) NeedLeaderElection() bool {
	return true
}

// Skipped returns how many ticks were skipped so far.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// trigger starts a sweep unless one is already running. It reports whether
// a sweep was started.
func (s *Scheduler) trigger(ctx context.Context) bool {
	logger := log.FromContext(ctx)
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		ticksSkipped.Inc()
		logger.V(1).Info("Previous sweep still running, skipping tick")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Errorf("panic: %v", r), "Sweep panicked")
			}
		}()

		// A sweep runs to completion even when shutdown begins.
		if _, err := s.sweeper.RunSweep(context.WithoutCancel(ctx)); err != nil {
			logger.Error(err, "Sweep failed")
		}
	}()
	return true
}
