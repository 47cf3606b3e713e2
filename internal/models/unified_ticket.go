package models

import (
	"time"

	"gorm.io/gorm"
)

// LineKind tags which payment table a ticket line points at
type LineKind string

const (
	LineKindMonthly     LineKind = "monthly"
	LineKindInstallment LineKind = "installment"
	LineKindFee         LineKind = "fee"
)

// UnifiedTicket is the aggregate receipt for one front-desk transaction.
// Child payment rows all share one receipt number; the ticket carries its own,
// drawn from the same namespace.
type UnifiedTicket struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ReceiptNo    string  `gorm:"type:varchar(30);uniqueIndex" json:"receipt_no"`
	ConnectionID uint    `gorm:"index" json:"connection_id"`
	TotalAmount  float64 `gorm:"type:decimal(15,2)" json:"total_amount"`

	PayerName     string    `gorm:"type:varchar(255)" json:"payer_name"`
	PayerIDNumber string    `gorm:"type:varchar(50)" json:"payer_id_number"`
	PaymentDate   time.Time `json:"payment_date"`
	Notes         string    `gorm:"type:varchar(500)" json:"notes,omitempty"`

	// Relationships
	Connection Connection   `gorm:"foreignKey:ConnectionID" json:"connection,omitempty"`
	Lines      []TicketLine `gorm:"foreignKey:TicketID" json:"lines,omitempty"`
}

// TicketLine is one item of a unified ticket: a tagged reference into the
// payment table named by Kind. Installment and fee lines mirror their row's
// amount; a monthly line covering several months references the first row of
// the group and carries the group total.
type TicketLine struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TicketID    uint     `gorm:"index" json:"ticket_id"`
	Kind        LineKind `gorm:"type:varchar(20)" json:"kind"`
	RefID       uint     `json:"ref_id"`
	Amount      float64  `gorm:"type:decimal(15,2)" json:"amount"`
	Description string   `gorm:"type:varchar(255)" json:"description"`
}
