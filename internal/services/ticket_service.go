package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

// MonthlyItem pays dues for one or more calendar months. Each period becomes
// one MonthlyDuePayment row at the connection's monthly fee; rows of a
// multi-period item share a group id.
type MonthlyItem struct {
	Periods []models.Period
}

// InstallmentItem pays one installment of a plan.
type InstallmentItem struct {
	PlanID            uint
	InstallmentNumber int
	Amount            float64
}

// FeeItem pays an ad-hoc fee.
type FeeItem struct {
	Category    models.FeeCategory
	Description string
	Amount      float64
}

// TicketInput is everything one front-desk transaction carries.
type TicketInput struct {
	ConnectionID  uint
	PayerName     string
	PayerIDNumber string
	PaymentDate   time.Time
	Notes         string
	Monthly       []MonthlyItem
	Installments  []InstallmentItem
	Fees          []FeeItem
}

func (in *TicketInput) itemCount() int {
	return len(in.Monthly) + len(in.Installments) + len(in.Fees)
}

// TicketService is the transaction boundary for unified payments: it turns a
// heterogeneous item list into child payment rows, one ticket, and one status
// recompute, all inside a single atomic transaction.
type TicketService struct {
	st         store.Store
	cache      *RedisCache
	coverage   *CoverageTracker
	ledger     *PlanLedger
	aggregator *StatusAggregator
}

// NewTicketService wires the orchestrator. cache may be nil.
func NewTicketService(st store.Store, cache *RedisCache, coverage *CoverageTracker, ledger *PlanLedger, aggregator *StatusAggregator) *TicketService {
	return &TicketService{st: st, cache: cache, coverage: coverage, ledger: ledger, aggregator: aggregator}
}

// Process records every item of the ticket atomically. On success the
// connection's status set already reflects the new payments; on any failure
// nothing was written.
func (s *TicketService) Process(ctx context.Context, input TicketInput) (*models.UnifiedTicket, error) {
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now()
	}
	if errs := s.validateStatic(input); len(errs) > 0 {
		return nil, errs
	}

	var ticket *models.UnifiedTicket
	var touchedPlans []uint
	err := s.st.Atomic(ctx, func(tx store.Store) error {
		conn, err := tx.LockConnection(ctx, input.ConnectionID)
		if err != nil {
			return fmt.Errorf("lock connection %d: %w", input.ConnectionID, err)
		}

		plans, errs := s.validateAgainstState(ctx, tx, conn, input)
		if len(errs) > 0 {
			return errs
		}

		// One number for all child rows, a second for the ticket itself.
		childSeq, err := NextReceipt(ctx, tx)
		if err != nil {
			return err
		}
		ticketSeq, err := NextReceipt(ctx, tx)
		if err != nil {
			return err
		}

		var lines []models.TicketLine
		var total float64

		for _, item := range input.Monthly {
			line, err := s.recordMonthlyItem(ctx, tx, conn, item, input, childSeq)
			if err != nil {
				return err
			}
			lines = append(lines, *line)
			total += line.Amount
		}

		for i, item := range input.Installments {
			plan := plans[i]
			payment, err := s.ledger.RecordPayment(ctx, tx, plan, item.Amount, item.InstallmentNumber,
				input.PayerName, input.PayerIDNumber, FormatReceipt(ReceiptKindInstallment, childSeq), input.PaymentDate)
			if err != nil {
				return err
			}
			touchedPlans = append(touchedPlans, plan.ID)
			lines = append(lines, models.TicketLine{
				Kind:        models.LineKindInstallment,
				RefID:       payment.ID,
				Amount:      payment.Amount,
				Description: fmt.Sprintf("Installment %d/%d, %s plan %d", item.InstallmentNumber, plan.InstallmentCount, plan.Category, plan.ID),
			})
			total += payment.Amount
		}

		for _, item := range input.Fees {
			payment := &models.MiscFeePayment{
				ConnectionID:  conn.ID,
				Category:      item.Category,
				Description:   item.Description,
				Amount:        item.Amount,
				ReceiptNo:     FormatReceipt(ReceiptKindFee, childSeq),
				PayerName:     input.PayerName,
				PayerIDNumber: input.PayerIDNumber,
				PaymentDate:   input.PaymentDate,
			}
			if err := tx.CreateFeePayment(ctx, payment); err != nil {
				return fmt.Errorf("create fee payment: %w", err)
			}
			desc := string(item.Category)
			if item.Description != "" {
				desc = fmt.Sprintf("%s: %s", item.Category, item.Description)
			}
			lines = append(lines, models.TicketLine{
				Kind:        models.LineKindFee,
				RefID:       payment.ID,
				Amount:      payment.Amount,
				Description: desc,
			})
			total += payment.Amount
		}

		ticket = &models.UnifiedTicket{
			ReceiptNo:     FormatReceipt(ReceiptKindTicket, ticketSeq),
			ConnectionID:  conn.ID,
			TotalAmount:   total,
			PayerName:     input.PayerName,
			PayerIDNumber: input.PayerIDNumber,
			PaymentDate:   input.PaymentDate,
			Notes:         input.Notes,
			Lines:         lines,
		}
		if err := tx.CreateTicket(ctx, ticket); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}

		// Exactly one recompute per ticket, after every child row exists.
		if _, err := s.aggregator.Recompute(ctx, tx, conn, input.PaymentDate); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePlans(ctx, touchedPlans)
	return ticket, nil
}

// validateStatic rejects malformed input without touching storage.
func (s *TicketService) validateStatic(input TicketInput) ValidationErrors {
	var errs ValidationErrors
	if input.ConnectionID == 0 {
		errs = append(errs, validationErr("connection_id", "is required"))
	}
	if strings.TrimSpace(input.PayerName) == "" {
		errs = append(errs, validationErr("payer_name", "is required"))
	}
	if input.itemCount() == 0 {
		errs = append(errs, validationErr("items", "at least one payment item is required"))
	}

	seen := make(map[models.Period]bool)
	for i, item := range input.Monthly {
		if len(item.Periods) == 0 {
			errs = append(errs, validationErr(fmt.Sprintf("monthly[%d].periods", i), "must not be empty"))
		}
		for _, p := range item.Periods {
			if !p.Valid() {
				errs = append(errs, validationErr(fmt.Sprintf("monthly[%d].periods", i), "%s is not a valid period", p))
				continue
			}
			if seen[p] {
				errs = append(errs, validationErr(fmt.Sprintf("monthly[%d].periods", i), "%s is listed twice", p))
			}
			seen[p] = true
		}
	}
	for i, item := range input.Installments {
		if item.PlanID == 0 {
			errs = append(errs, validationErr(fmt.Sprintf("installments[%d].plan_id", i), "is required"))
		}
		if item.Amount <= 0 {
			errs = append(errs, validationErr(fmt.Sprintf("installments[%d].amount", i), "must be greater than zero"))
		}
	}
	for i, item := range input.Fees {
		if !models.ValidFeeCategory(item.Category) {
			errs = append(errs, validationErr(fmt.Sprintf("fees[%d].category", i), "%q is not a known fee category", item.Category))
		}
		if item.Amount <= 0 {
			errs = append(errs, validationErr(fmt.Sprintf("fees[%d].amount", i), "must be greater than zero"))
		}
	}
	return errs
}

// validateAgainstState checks the parts that need storage: requested periods
// must be payable and uncovered, and every referenced plan must belong to the
// connection. Returns the loaded plans in input order.
func (s *TicketService) validateAgainstState(ctx context.Context, tx store.Store, conn *models.Connection, input TicketInput) ([]*models.InstallmentPlan, ValidationErrors) {
	var errs ValidationErrors

	if len(input.Monthly) > 0 {
		if conn.BillingStart == nil {
			errs = append(errs, validationErr("monthly", "connection %s is not billable yet", conn.Code))
		} else if conn.MonthlyFee <= 0 {
			errs = append(errs, validationErr("monthly", "connection %s has no monthly fee configured", conn.Code))
		} else {
			pending, err := s.coverage.PendingPeriods(ctx, tx, conn, input.PaymentDate)
			if err != nil {
				return nil, ValidationErrors{validationErr("monthly", "coverage lookup failed: %v", err)}
			}
			payable := make(map[models.Period]bool, len(pending.Arrears)+len(pending.AdvanceEligible))
			for _, p := range pending.Arrears {
				payable[p] = true
			}
			for _, p := range pending.AdvanceEligible {
				payable[p] = true
			}
			for i, item := range input.Monthly {
				for _, p := range item.Periods {
					if !payable[p] {
						errs = append(errs, validationErr(fmt.Sprintf("monthly[%d].periods", i), "%s is already paid or outside the payable window", p))
					}
				}
			}
		}
	}

	plans := make([]*models.InstallmentPlan, len(input.Installments))
	for i, item := range input.Installments {
		plan, err := tx.GetPlan(ctx, item.PlanID)
		if err != nil {
			errs = append(errs, validationErr(fmt.Sprintf("installments[%d].plan_id", i), "plan %d not found", item.PlanID))
			continue
		}
		if plan.ConnectionID != conn.ID {
			errs = append(errs, validationErr(fmt.Sprintf("installments[%d].plan_id", i), "plan %d does not belong to connection %s", plan.ID, conn.Code))
			continue
		}
		plans[i] = plan
	}
	return plans, errs
}

// recordMonthlyItem creates one MonthlyDuePayment per period and returns the
// single ticket line for the item, referencing the first row of the group.
func (s *TicketService) recordMonthlyItem(ctx context.Context, tx store.Store, conn *models.Connection, item MonthlyItem, input TicketInput, childSeq int64) (*models.TicketLine, error) {
	var groupID *string
	if len(item.Periods) > 1 {
		id := uuid.NewString()
		groupID = &id
	}
	periodsJSON, err := json.Marshal(item.Periods)
	if err != nil {
		return nil, fmt.Errorf("encode periods: %w", err)
	}

	var firstRowID uint
	labels := make([]string, 0, len(item.Periods))
	for i, period := range item.Periods {
		row := &models.MonthlyDuePayment{
			ConnectionID:   conn.ID,
			Month:          period.Month,
			Year:           period.Year,
			Amount:         conn.MonthlyFee,
			ReceiptNo:      FormatReceipt(ReceiptKindMonthly, childSeq),
			GroupID:        groupID,
			PeriodsCovered: datatypes.JSON(periodsJSON),
			PayerName:      input.PayerName,
			PayerIDNumber:  input.PayerIDNumber,
			PaymentDate:    input.PaymentDate,
		}
		if err := tx.CreateMonthlyPayment(ctx, row); err != nil {
			return nil, fmt.Errorf("create monthly payment for %s: %w", period, err)
		}
		if i == 0 {
			firstRowID = row.ID
		}
		labels = append(labels, period.String())
	}

	return &models.TicketLine{
		Kind:        models.LineKindMonthly,
		RefID:       firstRowID,
		Amount:      conn.MonthlyFee * float64(len(item.Periods)),
		Description: "Monthly dues " + strings.Join(labels, ", "),
	}, nil
}

// VoidMonthlyPayment soft-deletes a monthly payment and recomputes the
// connection status in the same transaction, so stored status never drifts
// from the remaining rows.
func (s *TicketService) VoidMonthlyPayment(ctx context.Context, id uint, asOf time.Time) error {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return s.st.Atomic(ctx, func(tx store.Store) error {
		payment, err := tx.GetMonthlyPayment(ctx, id)
		if err != nil {
			return err
		}
		conn, err := tx.LockConnection(ctx, payment.ConnectionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteMonthlyPayment(ctx, id); err != nil {
			return err
		}
		_, err = s.aggregator.Recompute(ctx, tx, conn, asOf)
		return err
	})
}

// VoidFeePayment soft-deletes a fee payment. Fees never feed the status set,
// but the recompute keeps the void paths uniform.
func (s *TicketService) VoidFeePayment(ctx context.Context, id uint, asOf time.Time) error {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return s.st.Atomic(ctx, func(tx store.Store) error {
		payment, err := tx.GetFeePayment(ctx, id)
		if err != nil {
			return err
		}
		conn, err := tx.LockConnection(ctx, payment.ConnectionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteFeePayment(ctx, id); err != nil {
			return err
		}
		_, err = s.aggregator.Recompute(ctx, tx, conn, asOf)
		return err
	})
}

func (s *TicketService) invalidatePlans(ctx context.Context, planIDs []uint) {
	if len(planIDs) == 0 {
		return
	}
	keys := make([]string, len(planIDs))
	for i, id := range planIDs {
		keys[i] = PlanStateKey(id)
	}
	_ = s.cache.Delete(ctx, keys...)
}
