package services

import (
	"context"
	"testing"

	"aquacoop_app_echo/internal/store"
)

func TestFormatReceipt(t *testing.T) {
	tests := []struct {
		name     string
		kind     ReceiptKind
		seq      int64
		expected string
	}{
		{name: "monthly", kind: ReceiptKindMonthly, seq: 42, expected: "MON-0000042"},
		{name: "installment", kind: ReceiptKindInstallment, seq: 1, expected: "INS-0000001"},
		{name: "fee", kind: ReceiptKindFee, seq: 1234567, expected: "FEE-1234567"},
		{name: "ticket", kind: ReceiptKindTicket, seq: 99, expected: "TKT-0000099"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatReceipt(tt.kind, tt.seq)
			if result != tt.expected {
				t.Errorf("FormatReceipt(%s, %d) = %q; want %q", tt.kind, tt.seq, result, tt.expected)
			}
		})
	}
}

func TestNextReceiptMonotonicAndUnique(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 50; i++ {
		seq, err := NextReceipt(ctx, st)
		if err != nil {
			t.Fatalf("NextReceipt: %v", err)
		}
		if seq <= last {
			t.Fatalf("sequence not monotonic: got %d after %d", seq, last)
		}
		if seen[seq] {
			t.Fatalf("sequence %d issued twice", seq)
		}
		seen[seq] = true
		last = seq
	}
}

func TestNextReceiptSharedNamespaceAcrossKinds(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	// Formatting the same stream under different kinds must never collide,
	// because the numeric part is drawn from one counter.
	receipts := make(map[string]bool)
	kinds := []ReceiptKind{ReceiptKindMonthly, ReceiptKindInstallment, ReceiptKindFee, ReceiptKindTicket}
	for i := 0; i < 20; i++ {
		seq, err := NextReceipt(ctx, st)
		if err != nil {
			t.Fatalf("NextReceipt: %v", err)
		}
		r := FormatReceipt(kinds[i%len(kinds)], seq)
		if receipts[r] {
			t.Fatalf("receipt %s issued twice", r)
		}
		receipts[r] = true
	}
}

func TestNextReceiptRollsBackWithTransaction(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	first, err := NextReceipt(ctx, st)
	if err != nil {
		t.Fatalf("NextReceipt: %v", err)
	}

	wantErr := context.Canceled
	err = st.Atomic(ctx, func(tx store.Store) error {
		if _, err := NextReceipt(ctx, tx); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Atomic: got %v, want %v", err, wantErr)
	}

	next, err := NextReceipt(ctx, st)
	if err != nil {
		t.Fatalf("NextReceipt: %v", err)
	}
	if next != first+1 {
		t.Errorf("aborted transaction leaked a receipt number: got %d, want %d", next, first+1)
	}
}
