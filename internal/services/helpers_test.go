package services

import (
	"context"
	"testing"
	"time"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

type testEnv struct {
	st         *store.MemoryStore
	coverage   *CoverageTracker
	ledger     *PlanLedger
	aggregator *StatusAggregator
	tickets    *TicketService
	plans      *PlanService
	queries    *QueryService
}

func newTestEnv() *testEnv {
	st := store.NewMemoryStore()
	coverage := NewCoverageTracker(12)
	ledger := NewPlanLedger()
	aggregator := NewStatusAggregator(coverage, ledger, nil)
	return &testEnv{
		st:         st,
		coverage:   coverage,
		ledger:     ledger,
		aggregator: aggregator,
		tickets:    NewTicketService(st, nil, coverage, ledger, aggregator),
		plans:      NewPlanService(st, nil, ledger, aggregator),
		queries:    NewQueryService(st, nil, coverage, ledger),
	}
}

func date(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func (e *testEnv) seedConnection(t *testing.T, monthlyFee float64, billingStart *time.Time) *models.Connection {
	t.Helper()
	ctx := context.Background()

	owner := &models.Owner{Name: "Maria Lopez", IDNumber: "0801-1985-01234"}
	if err := e.st.CreateOwner(ctx, owner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	conn := &models.Connection{
		Code:             "PJ-001",
		OwnerID:          owner.ID,
		Community:        "El Centro",
		OperationalState: models.OperationalStateOperational,
		MonthlyFee:       monthlyFee,
		BillingStart:     billingStart,
		PaymentStatus:    models.NewStatusSet(),
	}
	if err := e.st.CreateConnection(ctx, conn); err != nil {
		t.Fatalf("seed connection: %v", err)
	}
	return conn
}

func (e *testEnv) seedPlan(t *testing.T, connID uint, category models.PlanCategory, total float64, count int) *models.InstallmentPlan {
	t.Helper()
	plan := &models.InstallmentPlan{
		ConnectionID:      connID,
		Category:          category,
		TotalAmount:       total,
		InstallmentCount:  count,
		InstallmentAmount: total / float64(count),
		Status:            models.PlanStatusActive,
	}
	if err := e.st.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

// payMonths records dues directly, bypassing the orchestrator, for fixtures.
func (e *testEnv) payMonths(t *testing.T, connID uint, fee float64, periods ...models.Period) {
	t.Helper()
	ctx := context.Background()
	for _, p := range periods {
		row := &models.MonthlyDuePayment{
			ConnectionID: connID,
			Month:        p.Month,
			Year:         p.Year,
			Amount:       fee,
			ReceiptNo:    "MON-0000001",
			PayerName:    "Maria Lopez",
			PaymentDate:  date(p.Year, p.Month),
		}
		if err := e.st.CreateMonthlyPayment(ctx, row); err != nil {
			t.Fatalf("seed monthly payment %s: %v", p, err)
		}
	}
}
