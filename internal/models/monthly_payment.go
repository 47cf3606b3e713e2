package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MonthlyDuePayment records one paid calendar month of dues for a connection.
// When several months are paid in one ticket, all rows share a GroupID and each
// carries the full list of periods the combined amount covered.
// Rows are immutable once created except for soft deletion.
type MonthlyDuePayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ConnectionID uint   `gorm:"index" json:"connection_id"`
	Month        int    `gorm:"index:idx_monthly_period,priority:2" json:"month"`
	Year         int    `gorm:"index:idx_monthly_period,priority:1" json:"year"`
	Amount       float64 `gorm:"type:decimal(15,2)" json:"amount"`
	ReceiptNo    string  `gorm:"type:varchar(30);index" json:"receipt_no"`

	GroupID        *string        `gorm:"type:varchar(40);index" json:"group_id,omitempty"`
	PeriodsCovered datatypes.JSON `json:"periods_covered,omitempty"`

	PayerName     string    `gorm:"type:varchar(255)" json:"payer_name"`
	PayerIDNumber string    `gorm:"type:varchar(50)" json:"payer_id_number"`
	PaymentDate   time.Time `json:"payment_date"`

	// Relationships
	Connection Connection `gorm:"foreignKey:ConnectionID" json:"connection,omitempty"`
}

// Period returns the calendar month this row pays for.
func (p MonthlyDuePayment) Period() Period {
	return Period{Month: p.Month, Year: p.Year}
}
