package services

import (
	"context"
	"time"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

// cacheTTL bounds read-side staleness; every write path also invalidates.
const cacheTTL = 60 * time.Second

// PlanState is the read-only view of a plan exposed to the front office.
type PlanState struct {
	PlanID            uint                `json:"plan_id"`
	ConnectionID      uint                `json:"connection_id"`
	Category          models.PlanCategory `json:"category"`
	Status            models.PlanStatus   `json:"status"`
	TotalAmount       float64             `json:"total_amount"`
	InstallmentCount  int                 `json:"installment_count"`
	InstallmentAmount float64             `json:"installment_amount"`
	PlanProgress
}

// ConnectionStatus is the read-only view of a connection's payment standing.
type ConnectionStatus struct {
	ConnectionID   uint             `json:"connection_id"`
	Code           string           `json:"code"`
	PaymentStatus  models.StatusSet `json:"payment_status"`
	PendingPeriods PendingPeriods   `json:"pending_periods"`
}

// QueryService serves the read-only contracts, cached in Redis when a cache
// is configured.
type QueryService struct {
	st       store.Store
	cache    *RedisCache
	coverage *CoverageTracker
	ledger   *PlanLedger
}

// NewQueryService wires the read side. cache may be nil.
func NewQueryService(st store.Store, cache *RedisCache, coverage *CoverageTracker, ledger *PlanLedger) *QueryService {
	return &QueryService{st: st, cache: cache, coverage: coverage, ledger: ledger}
}

// PlanState returns the derived state of one plan.
func (s *QueryService) PlanState(ctx context.Context, planID uint) (*PlanState, error) {
	return GetOrSet(s.cache, ctx, PlanStateKey(planID), cacheTTL, func() (*PlanState, error) {
		plan, err := s.st.GetPlan(ctx, planID)
		if err != nil {
			return nil, err
		}
		progress, err := s.ledger.Progress(ctx, s.st, plan)
		if err != nil {
			return nil, err
		}
		return &PlanState{
			PlanID:            plan.ID,
			ConnectionID:      plan.ConnectionID,
			Category:          plan.Category,
			Status:            plan.Status,
			TotalAmount:       plan.TotalAmount,
			InstallmentCount:  plan.InstallmentCount,
			InstallmentAmount: plan.InstallmentAmount,
			PlanProgress:      *progress,
		}, nil
	})
}

// ConnectionStatus returns the stored status set plus the pending periods as
// of the given date.
func (s *QueryService) ConnectionStatus(ctx context.Context, connectionID uint, asOf time.Time) (*ConnectionStatus, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	key := ConnectionStatusKey(connectionID, models.PeriodOf(asOf).String())
	return GetOrSet(s.cache, ctx, key, cacheTTL, func() (*ConnectionStatus, error) {
		conn, err := s.st.GetConnection(ctx, connectionID)
		if err != nil {
			return nil, err
		}
		pending, err := s.coverage.PendingPeriods(ctx, s.st, conn, asOf)
		if err != nil {
			return nil, err
		}
		return &ConnectionStatus{
			ConnectionID:   conn.ID,
			Code:           conn.Code,
			PaymentStatus:  conn.PaymentStatus,
			PendingPeriods: *pending,
		}, nil
	})
}
