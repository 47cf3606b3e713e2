package models

import (
	"time"

	"gorm.io/gorm"
)

// Owner represents the person or organization a connection is registered to.
// The payment core only ever reads owners; the directory screens manage them.
type Owner struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name      string `gorm:"type:varchar(255)" json:"name"`
	IDNumber  string `gorm:"type:varchar(50);index" json:"id_number"`
	Phone     string `gorm:"type:varchar(50)" json:"phone"`
	Community string `gorm:"type:varchar(100)" json:"community"`

	// Relationships
	Connections []Connection `gorm:"foreignKey:OwnerID" json:"connections,omitempty"`
}
