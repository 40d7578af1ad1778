package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a garment merchant the plant processes orders for
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null" json:"code"` // generated, e.g. CUST-0001
	Name      string         `gorm:"not null" json:"name"`
	Mobile    string         `gorm:"uniqueIndex;not null" json:"mobile"`
	Email     string         `json:"email"`
	Address   string         `gorm:"type:text" json:"address"`
	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
