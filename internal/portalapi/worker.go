package portalapi

import (
	"context"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"go.uber.org/zap"
)

type reconcileRunner interface {
	runOnce(ctx context.Context) (reconcileSummary, error)
}

type reconcileSummary struct {
	attempted  int
	reconciled int
	failed     int
	review     int
}

// reconcileWorker retries rejected prize credits on a fixed interval and
// reports credits that wait for an operator.
type reconcileWorker struct {
	runner   reconcileRunner
	interval time.Duration
	logger   *zap.Logger
}

func newReconcileWorker(runner reconcileRunner, interval time.Duration, logger *zap.Logger) *reconcileWorker {
	return &reconcileWorker{runner: runner, interval: interval, logger: logger}
}

// Start blocks until ctx is done.
func (worker *reconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(worker.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			worker.tick(ctx)
		}
	}
}

func (worker *reconcileWorker) tick(ctx context.Context) {
	summary, err := worker.runner.runOnce(ctx)
	if err != nil {
		worker.logger.Error("reconciliation failed", zap.Error(err))
		return
	}
	if summary.review > 0 {
		worker.logger.Warn("credits awaiting manual review", zap.Int("review", summary.review))
	}
	if summary.attempted == 0 {
		return
	}
	worker.logger.Info("reconciliation completed",
		zap.Int("attempted", summary.attempted),
		zap.Int("reconciled", summary.reconciled),
		zap.Int("failed", summary.failed),
	)
}

// journalReconciler adapts wager.Reconciler to the worker.
type journalReconciler struct {
	reconciler *wager.Reconciler
	batch      int
}

func (runner journalReconciler) runOnce(ctx context.Context) (reconcileSummary, error) {
	report, err := runner.reconciler.Reconcile(ctx, runner.batch)
	if err != nil {
		return reconcileSummary{}, err
	}
	return reconcileSummary{
		attempted:  len(report.Attempted),
		reconciled: len(report.Reconciled),
		failed:     len(report.Failed),
		review:     len(report.Review),
	}, nil
}
