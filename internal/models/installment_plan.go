package models

import (
	"time"

	"gorm.io/gorm"
)

// PlanCategory represents what the installment plan pays off
type PlanCategory string

const (
	PlanCategoryInstallation PlanCategory = "installation"
	PlanCategoryMeter        PlanCategory = "meter"
)

// PlanStatus represents the lifecycle state of an installment plan
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// InstallmentPlan is a fixed-installment arrangement for a one-time charge
// (meter purchase or installation work) against a connection. Plans are never
// hard-deleted; completed and cancelled are terminal except that a cancelled
// plan may be reactivated.
type InstallmentPlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ConnectionID      uint         `gorm:"index" json:"connection_id"`
	Category          PlanCategory `gorm:"type:varchar(20)" json:"category"`
	TotalAmount       float64      `gorm:"type:decimal(15,2)" json:"total_amount"`
	InstallmentCount  int          `json:"installment_count"`
	InstallmentAmount float64      `gorm:"type:decimal(15,2)" json:"installment_amount"`
	Status            PlanStatus   `gorm:"type:varchar(20);default:'active';index" json:"status"`

	CancelReason string     `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CancelledBy  string     `gorm:"type:varchar(255)" json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CompletedBy  string     `gorm:"type:varchar(255)" json:"completed_by,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Relationships
	Connection Connection           `gorm:"foreignKey:ConnectionID" json:"connection,omitempty"`
	Payments   []InstallmentPayment `gorm:"foreignKey:PlanID" json:"payments,omitempty"`
}
