package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee represents a plant worker who can be handed machine assignments
type Employee struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `json:"phone"`
	Role      string         `gorm:"not null;default:'operator'" json:"role"` // "operator" or "supervisor"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}
