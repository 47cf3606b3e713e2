package models

import (
	"time"

	"gorm.io/gorm"
)

// InstallmentPayment records one payment against an installment plan.
// The installment number is not unique in storage; progress bookkeeping counts
// distinct numbers. Rows are immutable once created.
type InstallmentPayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PlanID            uint    `gorm:"index" json:"plan_id"`
	InstallmentNumber int     `json:"installment_number"`
	Amount            float64 `gorm:"type:decimal(15,2)" json:"amount"`
	ReceiptNo         string  `gorm:"type:varchar(30);index" json:"receipt_no"`

	PayerName     string    `gorm:"type:varchar(255)" json:"payer_name"`
	PayerIDNumber string    `gorm:"type:varchar(50)" json:"payer_id_number"`
	PaymentDate   time.Time `json:"payment_date"`

	// Relationships
	Plan InstallmentPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}
