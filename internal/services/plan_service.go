package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

// PlanService provisions installment plans and drives their lifecycle
// transitions. Every transition recomputes the connection status in the same
// transaction, since active plans with a balance feed the status set.
type PlanService struct {
	st         store.Store
	cache      *RedisCache
	ledger     *PlanLedger
	aggregator *StatusAggregator
}

// NewPlanService wires the service. cache may be nil.
func NewPlanService(st store.Store, cache *RedisCache, ledger *PlanLedger, aggregator *StatusAggregator) *PlanService {
	return &PlanService{st: st, cache: cache, ledger: ledger, aggregator: aggregator}
}

// CreatePlanInput describes a new installment plan.
type CreatePlanInput struct {
	ConnectionID     uint
	Category         models.PlanCategory
	TotalAmount      float64
	InstallmentCount int
}

// Create provisions an active plan with a per-installment suggested amount
// derived from the total.
func (s *PlanService) Create(ctx context.Context, input CreatePlanInput) (*models.InstallmentPlan, error) {
	var errs ValidationErrors
	if input.ConnectionID == 0 {
		errs = append(errs, validationErr("connection_id", "is required"))
	}
	if input.Category != models.PlanCategoryInstallation && input.Category != models.PlanCategoryMeter {
		errs = append(errs, validationErr("category", "%q is not a known plan category", input.Category))
	}
	if input.TotalAmount <= 0 {
		errs = append(errs, validationErr("total_amount", "must be greater than zero"))
	}
	if input.InstallmentCount < 1 {
		errs = append(errs, validationErr("installment_count", "must be at least 1"))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var plan *models.InstallmentPlan
	err := s.st.Atomic(ctx, func(tx store.Store) error {
		conn, err := tx.LockConnection(ctx, input.ConnectionID)
		if err != nil {
			return fmt.Errorf("lock connection %d: %w", input.ConnectionID, err)
		}

		plan = &models.InstallmentPlan{
			ConnectionID:      conn.ID,
			Category:          input.Category,
			TotalAmount:       input.TotalAmount,
			InstallmentCount:  input.InstallmentCount,
			InstallmentAmount: roundMoney(input.TotalAmount / float64(input.InstallmentCount)),
			Status:            models.PlanStatusActive,
		}
		if err := tx.CreatePlan(ctx, plan); err != nil {
			return fmt.Errorf("create plan: %w", err)
		}

		_, err = s.aggregator.Recompute(ctx, tx, conn, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Cancel moves an active plan to cancelled. Reason and actor are recorded on
// the plan; payments already made are kept.
func (s *PlanService) Cancel(ctx context.Context, planID uint, reason, actor string) (*models.InstallmentPlan, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, ValidationErrors{validationErr("actor", "is required")}
	}

	var plan *models.InstallmentPlan
	err := s.st.Atomic(ctx, func(tx store.Store) error {
		var err error
		plan, err = tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		conn, err := tx.LockConnection(ctx, plan.ConnectionID)
		if err != nil {
			return err
		}
		if err := s.ledger.Cancel(ctx, tx, plan, reason, actor, time.Now()); err != nil {
			return err
		}
		_, err = s.aggregator.Recompute(ctx, tx, conn, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, PlanStateKey(planID))
	return plan, nil
}

// Reactivate moves a cancelled plan back to active.
func (s *PlanService) Reactivate(ctx context.Context, planID uint) (*models.InstallmentPlan, error) {
	var plan *models.InstallmentPlan
	err := s.st.Atomic(ctx, func(tx store.Store) error {
		var err error
		plan, err = tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		conn, err := tx.LockConnection(ctx, plan.ConnectionID)
		if err != nil {
			return err
		}
		if err := s.ledger.Reactivate(ctx, tx, plan); err != nil {
			return err
		}
		_, err = s.aggregator.Recompute(ctx, tx, conn, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, PlanStateKey(planID))
	return plan, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
