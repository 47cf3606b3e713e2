package services

import (
	"context"
	"testing"

	"aquacoop_app_echo/internal/models"
)

func TestRecomputeStatus(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, env *testEnv) *models.Connection
		want  []models.PaymentStatus
	}{
		{
			name: "no billing start and no plans is up to date",
			setup: func(t *testing.T, env *testEnv) *models.Connection {
				return env.seedConnection(t, 10, nil)
			},
			want: []models.PaymentStatus{models.StatusUpToDate},
		},
		{
			name: "unpaid months give dues arrears",
			setup: func(t *testing.T, env *testEnv) *models.Connection {
				start := date(2026, 1)
				return env.seedConnection(t, 10, &start)
			},
			want: []models.PaymentStatus{models.StatusDuesArrears},
		},
		{
			name: "active meter plan with balance",
			setup: func(t *testing.T, env *testEnv) *models.Connection {
				conn := env.seedConnection(t, 10, nil)
				env.seedPlan(t, conn.ID, models.PlanCategoryMeter, 100, 4)
				return conn
			},
			want: []models.PaymentStatus{models.StatusMeterPlanArrears},
		},
		{
			name: "dues and both plan kinds accumulate",
			setup: func(t *testing.T, env *testEnv) *models.Connection {
				start := date(2026, 1)
				conn := env.seedConnection(t, 10, &start)
				env.seedPlan(t, conn.ID, models.PlanCategoryMeter, 100, 4)
				env.seedPlan(t, conn.ID, models.PlanCategoryInstallation, 200, 10)
				return conn
			},
			want: []models.PaymentStatus{
				models.StatusDuesArrears,
				models.StatusMeterPlanArrears,
				models.StatusInstallationPlanArrears,
			},
		},
		{
			name: "cancelled plan does not contribute",
			setup: func(t *testing.T, env *testEnv) *models.Connection {
				conn := env.seedConnection(t, 10, nil)
				plan := env.seedPlan(t, conn.ID, models.PlanCategoryMeter, 100, 4)
				if err := env.ledger.Cancel(context.Background(), env.st, plan, "owner request", "admin", date(2026, 1)); err != nil {
					t.Fatalf("Cancel: %v", err)
				}
				return conn
			},
			want: []models.PaymentStatus{models.StatusUpToDate},
		},
		{
			name: "completed plan does not contribute",
			setup: func(t *testing.T, env *testEnv) *models.Connection {
				conn := env.seedConnection(t, 10, nil)
				plan := env.seedPlan(t, conn.ID, models.PlanCategoryInstallation, 50, 2)
				ctx := context.Background()
				for n := 1; n <= 2; n++ {
					if _, err := env.ledger.RecordPayment(ctx, env.st, plan, 25, n, "Maria Lopez", "", "INS-0000010", date(2026, n)); err != nil {
						t.Fatalf("RecordPayment: %v", err)
					}
				}
				return conn
			},
			want: []models.PaymentStatus{models.StatusUpToDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			conn := tt.setup(t, env)

			set, err := env.aggregator.Recompute(context.Background(), env.st, conn, date(2026, 3))
			if err != nil {
				t.Fatalf("Recompute: %v", err)
			}

			if set.Len() != len(tt.want) {
				t.Fatalf("status set: got %s, want %v", set, tt.want)
			}
			for _, member := range tt.want {
				if !set.Has(member) {
					t.Errorf("status set %s missing %s", set, member)
				}
			}

			// The persisted row carries the same set.
			stored, err := env.st.GetConnection(context.Background(), conn.ID)
			if err != nil {
				t.Fatalf("GetConnection: %v", err)
			}
			if stored.PaymentStatus != set {
				t.Errorf("persisted status %s differs from returned %s", stored.PaymentStatus, set)
			}
		})
	}
}

// up_to_date never coexists with an arrears member.
func TestStatusExclusivity(t *testing.T) {
	env := newTestEnv()
	start := date(2026, 1)
	conn := env.seedConnection(t, 10, &start)
	env.seedPlan(t, conn.ID, models.PlanCategoryMeter, 100, 4)

	set, err := env.aggregator.Recompute(context.Background(), env.st, conn, date(2026, 3))
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if set.Has(models.StatusUpToDate) != (set.Len() == 1) {
		t.Errorf("exclusivity violated: %s", set)
	}
	if set.Has(models.StatusUpToDate) {
		t.Errorf("connection in arrears reported up to date: %s", set)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	env := newTestEnv()
	start := date(2026, 1)
	conn := env.seedConnection(t, 10, &start)
	env.seedPlan(t, conn.ID, models.PlanCategoryInstallation, 100, 4)
	ctx := context.Background()

	first, err := env.aggregator.Recompute(ctx, env.st, conn, date(2026, 3))
	if err != nil {
		t.Fatalf("first Recompute: %v", err)
	}
	second, err := env.aggregator.Recompute(ctx, env.st, conn, date(2026, 3))
	if err != nil {
		t.Fatalf("second Recompute: %v", err)
	}
	if first != second {
		t.Errorf("recompute not idempotent: %s then %s", first, second)
	}
}
