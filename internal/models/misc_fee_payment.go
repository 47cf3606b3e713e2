package models

import (
	"time"

	"gorm.io/gorm"
)

// FeeCategory represents the kind of ad-hoc charge
type FeeCategory string

const (
	FeeCategoryReconnection FeeCategory = "reconnection"
	FeeCategoryTransfer     FeeCategory = "transfer"
	FeeCategoryFine         FeeCategory = "fine"
	FeeCategoryMaterials    FeeCategory = "materials"
	FeeCategoryOther        FeeCategory = "other"
)

// ValidFeeCategory reports whether c is a member of the fixed enumeration.
func ValidFeeCategory(c FeeCategory) bool {
	switch c {
	case FeeCategoryReconnection, FeeCategoryTransfer, FeeCategoryFine,
		FeeCategoryMaterials, FeeCategoryOther:
		return true
	}
	return false
}

// MiscFeePayment records an ad-hoc fee paid against a connection.
// Rows are immutable once created.
type MiscFeePayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ConnectionID uint        `gorm:"index" json:"connection_id"`
	Category     FeeCategory `gorm:"type:varchar(30)" json:"category"`
	Description  string      `gorm:"type:varchar(255)" json:"description"`
	Amount       float64     `gorm:"type:decimal(15,2)" json:"amount"`
	ReceiptNo    string      `gorm:"type:varchar(30);index" json:"receipt_no"`

	PayerName     string    `gorm:"type:varchar(255)" json:"payer_name"`
	PayerIDNumber string    `gorm:"type:varchar(50)" json:"payer_id_number"`
	PaymentDate   time.Time `json:"payment_date"`

	// Relationships
	Connection Connection `gorm:"foreignKey:ConnectionID" json:"connection,omitempty"`
}
