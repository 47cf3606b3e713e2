package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"aquacoop_app_echo/internal/models"
)

func seedConn(t *testing.T, st *MemoryStore) *models.Connection {
	t.Helper()
	ctx := context.Background()
	owner := &models.Owner{Name: "Maria Lopez"}
	if err := st.CreateOwner(ctx, owner); err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	conn := &models.Connection{Code: "PJ-001", OwnerID: owner.ID, MonthlyFee: 10}
	if err := st.CreateConnection(ctx, conn); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	return conn
}

func TestAtomicCommit(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	err := st.Atomic(ctx, func(tx Store) error {
		return tx.CreateMonthlyPayment(ctx, &models.MonthlyDuePayment{
			ConnectionID: conn.ID,
			Month:        1,
			Year:         2026,
			Amount:       10,
			PaymentDate:  time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}

	rows, err := st.ListMonthlyPayments(ctx, conn.ID)
	if err != nil {
		t.Fatalf("ListMonthlyPayments: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("committed rows: got %d, want 1", len(rows))
	}
}

func TestAtomicRollbackDiscardsAllWrites(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	boom := errors.New("boom")
	err := st.Atomic(ctx, func(tx Store) error {
		if err := tx.CreateMonthlyPayment(ctx, &models.MonthlyDuePayment{
			ConnectionID: conn.ID, Month: 1, Year: 2026, Amount: 10,
		}); err != nil {
			return err
		}
		if err := tx.CreatePlan(ctx, &models.InstallmentPlan{
			ConnectionID: conn.ID, Category: models.PlanCategoryMeter, TotalAmount: 100, InstallmentCount: 4,
		}); err != nil {
			return err
		}
		if err := tx.UpdateConnectionStatus(ctx, conn.ID, models.StatusSet(models.StatusDuesArrears)); err != nil {
			return err
		}
		if _, err := tx.NextReceiptValue(ctx); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic: got %v, want boom", err)
	}

	rows, _ := st.ListMonthlyPayments(ctx, conn.ID)
	if len(rows) != 0 {
		t.Errorf("rolled back monthly rows survived: %d", len(rows))
	}
	plans, _ := st.ListPlansByConnection(ctx, conn.ID)
	if len(plans) != 0 {
		t.Errorf("rolled back plans survived: %d", len(plans))
	}
	stored, _ := st.GetConnection(ctx, conn.ID)
	if !stored.PaymentStatus.Has(models.StatusUpToDate) {
		t.Errorf("rolled back status update survived: %s", stored.PaymentStatus)
	}
	seq, _ := st.NextReceiptValue(ctx)
	if seq != 1 {
		t.Errorf("rolled back counter survived: got %d, want 1", seq)
	}
}

func TestAtomicNestedJoinsTransaction(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	boom := errors.New("boom")
	err := st.Atomic(ctx, func(tx Store) error {
		inner := tx.Atomic(ctx, func(tx2 Store) error {
			return tx2.CreateMonthlyPayment(ctx, &models.MonthlyDuePayment{
				ConnectionID: conn.ID, Month: 1, Year: 2026, Amount: 10,
			})
		})
		if inner != nil {
			return inner
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic: got %v, want boom", err)
	}

	// The inner write rolled back with the outer transaction.
	rows, _ := st.ListMonthlyPayments(ctx, conn.ID)
	if len(rows) != 0 {
		t.Errorf("nested write survived outer rollback: %d rows", len(rows))
	}
}

func TestSoftDeleteHidesRow(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	p := &models.MonthlyDuePayment{ConnectionID: conn.ID, Month: 1, Year: 2026, Amount: 10}
	if err := st.CreateMonthlyPayment(ctx, p); err != nil {
		t.Fatalf("CreateMonthlyPayment: %v", err)
	}
	if err := st.DeleteMonthlyPayment(ctx, p.ID); err != nil {
		t.Fatalf("DeleteMonthlyPayment: %v", err)
	}

	if _, err := st.GetMonthlyPayment(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	rows, _ := st.ListMonthlyPayments(ctx, conn.ID)
	if len(rows) != 0 {
		t.Errorf("deleted row still listed: %d", len(rows))
	}
	if err := st.DeleteMonthlyPayment(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestListMonthlyPaymentsChronological(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	for _, p := range []struct{ month, year int }{{3, 2026}, {11, 2025}, {1, 2026}} {
		if err := st.CreateMonthlyPayment(ctx, &models.MonthlyDuePayment{
			ConnectionID: conn.ID, Month: p.month, Year: p.year, Amount: 10,
		}); err != nil {
			t.Fatalf("CreateMonthlyPayment: %v", err)
		}
	}

	rows, err := st.ListMonthlyPayments(ctx, conn.ID)
	if err != nil {
		t.Fatalf("ListMonthlyPayments: %v", err)
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Period().Before(rows[i].Period()) {
			t.Fatalf("rows out of order: %v before %v", rows[i-1].Period(), rows[i].Period())
		}
	}
}

func TestUpdateConnectionStatusNormalizes(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	mixed := models.StatusSet(models.StatusUpToDate | models.StatusDuesArrears)
	if err := st.UpdateConnectionStatus(ctx, conn.ID, mixed); err != nil {
		t.Fatalf("UpdateConnectionStatus: %v", err)
	}

	stored, _ := st.GetConnection(ctx, conn.ID)
	if stored.PaymentStatus.Has(models.StatusUpToDate) {
		t.Errorf("up_to_date kept alongside arrears: %s", stored.PaymentStatus)
	}
	if !stored.PaymentStatus.Has(models.StatusDuesArrears) {
		t.Errorf("arrears member lost: %s", stored.PaymentStatus)
	}
}

func TestGetMissingRecords(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.GetConnection(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnection: got %v, want ErrNotFound", err)
	}
	if _, err := st.GetPlan(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPlan: got %v, want ErrNotFound", err)
	}
	if _, err := st.GetTicket(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTicket: got %v, want ErrNotFound", err)
	}
}

func TestTicketLinesDoNotAliasStore(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	conn := seedConn(t, st)

	ticket := &models.UnifiedTicket{
		ReceiptNo:    "TKT-0000001",
		ConnectionID: conn.ID,
		TotalAmount:  10,
		PayerName:    "Maria Lopez",
		PaymentDate:  time.Now(),
		Lines: []models.TicketLine{
			{Kind: models.LineKindMonthly, RefID: 1, Amount: 10, Description: "Monthly dues 2026-01"},
		},
	}
	if err := st.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	got, err := st.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	got.Lines[0].Amount = 999

	again, _ := st.GetTicket(ctx, ticket.ID)
	if again.Lines[0].Amount != 10 {
		t.Errorf("stored line mutated through returned slice: %v", again.Lines[0].Amount)
	}
}
