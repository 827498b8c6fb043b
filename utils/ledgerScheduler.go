package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Reconciler re-checks the stored balances against the ledger and returns
// the number of accounts that disagree.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// InitializeLedgerScheduler starts the cron job that reconciles wallet
// balances. The returned cron must be stopped on shutdown.
func InitializeLedgerScheduler(spec string, r Reconciler) (*cron.Cron, error) {
	Log.Infow("[LEDGER-SCHEDULER] initializing", "schedule", spec)

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		RunLedgerReconciliation(r)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	Log.Infow("[LEDGER-SCHEDULER] started", "schedule", spec)
	return c, nil
}

// RunLedgerReconciliation runs one reconciliation pass and logs the outcome.
func RunLedgerReconciliation(r Reconciler) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	mismatches, err := r.ReconcileAll(ctx)
	if err != nil {
		Log.Errorw("[LEDGER-SCHEDULER] reconciliation failed", "error", err)
		return 0
	}
	if mismatches > 0 {
		Log.Warnw("[LEDGER-SCHEDULER] balance mismatches found", "accounts", mismatches, "took", time.Since(start))
	} else {
		Log.Infow("[LEDGER-SCHEDULER] ledger consistent", "took", time.Since(start))
	}
	return mismatches
}
