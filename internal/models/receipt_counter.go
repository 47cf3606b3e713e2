package models

// ReceiptCounter is the single-row table backing the shared receipt numbering
// namespace. Every payment row and every ticket draws from the same counter.
type ReceiptCounter struct {
	ID    uint  `gorm:"primarykey" json:"id"`
	Value int64 `json:"value"`
}
