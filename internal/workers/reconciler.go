package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/services/planner"
)

// IndexReconciler repairs the deadline index and reloads state after a failed load
type IndexReconciler interface {
	Reconcile(ctx context.Context) (planner.ReconcileReport, error)
	Reload(ctx context.Context) error
	Degraded() bool
}

// Reconciler periodically repairs the deadline index
type Reconciler struct {
	target   IndexReconciler
	interval time.Duration
	logger   *zap.Logger
}

// NewReconciler creates a new reconciler. A non-positive interval disables Run.
func NewReconciler(target IndexReconciler, interval time.Duration, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// RunOnce performs a single reconciliation pass, reloading first when the
// last load failed
func (r *Reconciler) RunOnce(ctx context.Context) (planner.ReconcileReport, error) {
	if r.target.Degraded() {
		if err := r.target.Reload(ctx); err != nil {
			r.logger.Warn("scheduled_reload_failed", zap.Error(err))
			return planner.ReconcileReport{}, err
		}
		r.logger.Info("scheduled_reload_recovered_state")
	}

	report, err := r.target.Reconcile(ctx)
	if err != nil {
		r.logger.Warn("scheduled_reconciliation_failed", zap.Error(err))
		return report, err
	}
	if report.Changed() {
		r.logger.Info("scheduled_reconciliation_repaired_index",
			zap.Int("orphans_removed", report.OrphansRemoved),
			zap.Int("duplicates_removed", report.DuplicatesRemoved),
			zap.Int("empty_buckets_removed", report.EmptyBucketsRemoved),
		)
	} else {
		r.logger.Debug("scheduled_reconciliation_clean")
	}
	return report, nil
}

// Run reconciles every interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("scheduled_reconciliation_disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("scheduled_reconciliation_started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}
