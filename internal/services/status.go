package services

import (
	"context"
	"fmt"
	"time"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

// StatusAggregator derives a connection's payment-status set from the
// coverage tracker and its active installment plans. Recompute is a full
// re-derivation from current rows, never an incremental delta, so calling it
// at any time converges on the same answer for the same data.
type StatusAggregator struct {
	coverage *CoverageTracker
	ledger   *PlanLedger
	cache    *RedisCache
}

// NewStatusAggregator creates the aggregator. cache may be nil.
func NewStatusAggregator(coverage *CoverageTracker, ledger *PlanLedger, cache *RedisCache) *StatusAggregator {
	return &StatusAggregator{coverage: coverage, ledger: ledger, cache: cache}
}

// Recompute derives and persists the status set for the connection as of the
// given date. It must run on the same transactional store as the payment
// writes that triggered it, so the persisted set can never reflect a stale
// interleaving.
func (a *StatusAggregator) Recompute(ctx context.Context, st store.Store, conn *models.Connection, asOf time.Time) (models.StatusSet, error) {
	var set models.StatusSet

	pending, err := a.coverage.PendingPeriods(ctx, st, conn, asOf)
	if err != nil {
		return 0, fmt.Errorf("coverage for connection %d: %w", conn.ID, err)
	}
	if len(pending.Arrears) > 0 {
		set = set.Add(models.StatusDuesArrears)
	}

	plans, err := st.ListPlansByConnection(ctx, conn.ID)
	if err != nil {
		return 0, fmt.Errorf("plans for connection %d: %w", conn.ID, err)
	}
	for i := range plans {
		plan := &plans[i]
		if plan.Status != models.PlanStatusActive {
			continue
		}
		progress, err := a.ledger.Progress(ctx, st, plan)
		if err != nil {
			return 0, err
		}
		if progress.Balance <= 0 {
			continue
		}
		switch plan.Category {
		case models.PlanCategoryMeter:
			set = set.Add(models.StatusMeterPlanArrears)
		case models.PlanCategoryInstallation:
			set = set.Add(models.StatusInstallationPlanArrears)
		}
	}

	set = set.Normalize()
	if err := st.UpdateConnectionStatus(ctx, conn.ID, set); err != nil {
		return 0, fmt.Errorf("persist status for connection %d: %w", conn.ID, err)
	}
	conn.PaymentStatus = set

	// Best-effort cache drop; a stale delete from a rolled-back transaction
	// only causes one extra read-through.
	_ = a.cache.DeletePattern(ctx, ConnectionStatusPattern(conn.ID))

	return set, nil
}
