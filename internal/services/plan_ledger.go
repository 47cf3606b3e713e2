package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

// amountEpsilon absorbs float drift on money sums; anything under half a cent
// counts as zero.
const amountEpsilon = 0.005

// PlanProgress is the derived balance and progress of an installment plan.
// InstallmentsPaid counts distinct installment numbers, not payment rows; a
// partially re-paid number shows once here while PaymentCount shows every row.
type PlanProgress struct {
	TotalPaid           float64 `json:"total_paid"`
	Balance             float64 `json:"balance"`
	InstallmentsPaid    int     `json:"installments_paid"`
	PaymentCount        int     `json:"payment_count"`
	ProgressPercent     float64 `json:"progress_percent"`
	PendingInstallments []int   `json:"pending_installments"`
}

// PlanLedger owns the installment plan state machine and its arithmetic.
// Plans start active; completed and cancelled are terminal, except that a
// cancelled plan can be reactivated.
type PlanLedger struct{}

// NewPlanLedger creates the ledger.
func NewPlanLedger() *PlanLedger {
	return &PlanLedger{}
}

// Progress recomputes the plan's derived figures from its payment rows.
func (l *PlanLedger) Progress(ctx context.Context, st store.Store, plan *models.InstallmentPlan) (*PlanProgress, error) {
	payments, err := st.ListInstallmentPayments(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("list installment payments: %w", err)
	}

	progress := &PlanProgress{PaymentCount: len(payments)}
	paidNumbers := make(map[int]bool)
	for _, p := range payments {
		progress.TotalPaid += p.Amount
		paidNumbers[p.InstallmentNumber] = true
	}
	progress.InstallmentsPaid = len(paidNumbers)

	progress.Balance = plan.TotalAmount - progress.TotalPaid
	if progress.Balance < amountEpsilon {
		progress.Balance = 0
	}

	if plan.InstallmentCount > 0 {
		progress.ProgressPercent = float64(progress.InstallmentsPaid) / float64(plan.InstallmentCount) * 100
		if progress.ProgressPercent > 100 {
			progress.ProgressPercent = 100
		}
		for n := 1; n <= plan.InstallmentCount; n++ {
			if !paidNumbers[n] {
				progress.PendingInstallments = append(progress.PendingInstallments, n)
			}
		}
		sort.Ints(progress.PendingInstallments)
	}
	return progress, nil
}

// RecordPayment appends one installment payment to an active plan and
// transitions the plan to completed when the balance reaches zero. The caller
// is expected to run this inside a transaction; nothing is cleaned up here on
// failure.
func (l *PlanLedger) RecordPayment(ctx context.Context, st store.Store, plan *models.InstallmentPlan, amount float64, installmentNumber int, payerName, payerIDNumber, receiptNo string, when time.Time) (*models.InstallmentPayment, error) {
	if plan.Status != models.PlanStatusActive {
		return nil, fmt.Errorf("plan %d is %s: %w", plan.ID, plan.Status, ErrPlanNotActive)
	}
	if amount <= 0 {
		return nil, validationErr("amount", "must be greater than zero")
	}
	if installmentNumber < 1 || installmentNumber > plan.InstallmentCount {
		return nil, validationErr("installment_number", "must be between 1 and %d", plan.InstallmentCount)
	}

	before, err := l.Progress(ctx, st, plan)
	if err != nil {
		return nil, err
	}
	if amount > before.Balance+amountEpsilon {
		return nil, validationErr("amount", "exceeds plan balance of %.2f", before.Balance)
	}

	payment := &models.InstallmentPayment{
		PlanID:            plan.ID,
		InstallmentNumber: installmentNumber,
		Amount:            amount,
		ReceiptNo:         receiptNo,
		PayerName:         payerName,
		PayerIDNumber:     payerIDNumber,
		PaymentDate:       when,
	}
	if err := st.CreateInstallmentPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("create installment payment: %w", err)
	}

	after, err := l.Progress(ctx, st, plan)
	if err != nil {
		return nil, err
	}
	if after.Balance == 0 {
		plan.Status = models.PlanStatusCompleted
		plan.CompletedBy = payerName
		completedAt := when
		plan.CompletedAt = &completedAt
		if err := st.SavePlan(ctx, plan); err != nil {
			return nil, fmt.Errorf("complete plan: %w", err)
		}
	}
	return payment, nil
}

// Cancel moves an active plan to cancelled, stamping reason and actor.
// Existing payments are kept.
func (l *PlanLedger) Cancel(ctx context.Context, st store.Store, plan *models.InstallmentPlan, reason, actor string, when time.Time) error {
	if plan.Status != models.PlanStatusActive {
		return fmt.Errorf("plan %d is %s: %w", plan.ID, plan.Status, ErrPlanNotActive)
	}
	if strings.TrimSpace(reason) == "" {
		return validationErr("reason", "is required")
	}

	plan.Status = models.PlanStatusCancelled
	plan.CancelReason = reason
	plan.CancelledBy = actor
	cancelledAt := when
	plan.CancelledAt = &cancelledAt
	if err := st.SavePlan(ctx, plan); err != nil {
		return fmt.Errorf("cancel plan: %w", err)
	}
	return nil
}

// Reactivate moves a cancelled plan back to active and clears the
// cancellation metadata.
func (l *PlanLedger) Reactivate(ctx context.Context, st store.Store, plan *models.InstallmentPlan) error {
	if plan.Status != models.PlanStatusCancelled {
		return fmt.Errorf("plan %d is %s: %w", plan.ID, plan.Status, ErrPlanNotCancelled)
	}

	plan.Status = models.PlanStatusActive
	plan.CancelReason = ""
	plan.CancelledBy = ""
	plan.CancelledAt = nil
	if err := st.SavePlan(ctx, plan); err != nil {
		return fmt.Errorf("reactivate plan: %w", err)
	}
	return nil
}
