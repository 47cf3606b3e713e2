package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/teambition/rrule-go"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/store"
)

// DefaultAdvanceMonths is how far past the reference date a connection may
// pre-pay dues.
const DefaultAdvanceMonths = 12

// PendingPeriods is the coverage tracker result: months owed as of the
// reference date, and uncovered future months open to pre-payment. Both lists
// are chronological.
type PendingPeriods struct {
	Arrears         []models.Period `json:"arrears"`
	AdvanceEligible []models.Period `json:"advance_eligible"`
}

// CoverageTracker derives which calendar months of a connection are unpaid.
type CoverageTracker struct {
	advanceMonths int
}

// NewCoverageTracker creates a tracker with the given advance window;
// values < 1 fall back to DefaultAdvanceMonths.
func NewCoverageTracker(advanceMonths int) *CoverageTracker {
	if advanceMonths < 1 {
		advanceMonths = DefaultAdvanceMonths
	}
	return &CoverageTracker{advanceMonths: advanceMonths}
}

// PendingPeriods walks every billable month from the connection's billing
// start through asOf plus the advance window, and classifies each uncovered
// month. A connection without a billing start is not yet billable and yields
// empty lists.
func (t *CoverageTracker) PendingPeriods(ctx context.Context, st store.Store, conn *models.Connection, asOf time.Time) (*PendingPeriods, error) {
	if conn.BillingStart == nil {
		log.Printf("connection %d (%s) has no billing start, skipping coverage", conn.ID, conn.Code)
		return &PendingPeriods{}, nil
	}

	payments, err := st.ListMonthlyPayments(ctx, conn.ID)
	if err != nil {
		return nil, fmt.Errorf("list monthly payments: %w", err)
	}
	covered := make(map[models.Period]bool, len(payments))
	for _, p := range payments {
		covered[p.Period()] = true
	}

	start := firstOfMonth(*conn.BillingStart)
	horizon := firstOfMonth(asOf).AddDate(0, t.advanceMonths, 0)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.MONTHLY,
		Dtstart: start,
	})
	if err != nil {
		return nil, fmt.Errorf("build month recurrence: %w", err)
	}

	asOfPeriod := models.PeriodOf(asOf)
	result := &PendingPeriods{}
	for _, occ := range rule.Between(start, horizon, true) {
		period := models.PeriodOf(occ)
		if covered[period] {
			continue
		}
		if period.Before(asOfPeriod) || period == asOfPeriod {
			result.Arrears = append(result.Arrears, period)
		} else {
			result.AdvanceEligible = append(result.AdvanceEligible, period)
		}
	}
	return result, nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
