package models

import (
	"time"

	"gorm.io/gorm"
)

// OperationalState represents the physical state of a connection
type OperationalState string

const (
	OperationalStateOperational OperationalState = "operational"
	OperationalStateSuspended   OperationalState = "suspended"
)

// Connection represents a billable water service point ("paja")
type Connection struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code             string           `gorm:"type:varchar(50);uniqueIndex" json:"code"`
	OwnerID          uint             `gorm:"index" json:"owner_id"`
	Community        string           `gorm:"type:varchar(100)" json:"community"`
	OperationalState OperationalState `gorm:"type:varchar(20);default:'operational'" json:"operational_state"`

	// BillingStart is the first billable month. Nil means the connection is
	// provisioned but not yet billable, so it has no pending periods.
	BillingStart *time.Time `json:"billing_start"`
	MonthlyFee   float64    `gorm:"type:decimal(15,2)" json:"monthly_fee"`

	// PaymentStatus is derived data, written only by the status aggregator.
	PaymentStatus StatusSet `gorm:"type:varchar(120);default:'up_to_date'" json:"payment_status"`

	// Relationships
	Owner            Owner               `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	MonthlyPayments  []MonthlyDuePayment `gorm:"foreignKey:ConnectionID" json:"monthly_payments,omitempty"`
	InstallmentPlans []InstallmentPlan   `gorm:"foreignKey:ConnectionID" json:"installment_plans,omitempty"`
	FeePayments      []MiscFeePayment    `gorm:"foreignKey:ConnectionID" json:"fee_payments,omitempty"`
}
