package services

import (
	"context"
	"fmt"

	"aquacoop_app_echo/internal/store"
)

// ReceiptKind selects the textual receipt format for one payment kind. All
// kinds draw their number from the same counter, so formatted receipts can
// never collide across kinds.
type ReceiptKind string

const (
	ReceiptKindMonthly     ReceiptKind = "MON"
	ReceiptKindInstallment ReceiptKind = "INS"
	ReceiptKindFee         ReceiptKind = "FEE"
	ReceiptKindTicket      ReceiptKind = "TKT"
)

// NextReceipt allocates the next value from the shared receipt namespace. It
// must be called on the transactional store so an aborted ticket does not
// commit the increment. Calling it several times in one transaction is fine;
// a ticket takes one value for its children and a second for itself.
func NextReceipt(ctx context.Context, st store.Store) (int64, error) {
	seq, err := st.NextReceiptValue(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate receipt number: %w", err)
	}
	return seq, nil
}

// FormatReceipt renders the persisted textual form, e.g. MON-0000042.
func FormatReceipt(kind ReceiptKind, seq int64) string {
	return fmt.Sprintf("%s-%07d", kind, seq)
}
