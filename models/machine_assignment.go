package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment statuses. Cancelled assignments do not count against a
// record's remaining quantity.
const (
	AssignmentStatusInProgress = "In Progress"
	AssignmentStatusCompleted  = "Completed"
	AssignmentStatusCancelled  = "Cancelled"
)

// MachineAssignment is a portion of a record's quantity handed to a worker
// and machine pair for execution. OrderID is denormalized from the parent
// record for direct lookup.
type MachineAssignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	RecordID       uint           `gorm:"not null;index" json:"record_id"`
	OrderID        uint           `gorm:"not null;index" json:"order_id"`
	AssignedByID   uint           `gorm:"not null" json:"assigned_by_id"`
	AssignedBy     Employee       `gorm:"foreignKey:AssignedByID" json:"assigned_by"`
	Quantity       int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	WashingMachine *string        `json:"washing_machine,omitempty"` // machine code, e.g. WM-03
	DryingMachine  *string        `json:"drying_machine,omitempty"`
	Status         string         `gorm:"not null;default:'In Progress'" json:"status"`
	ReturnQuantity int            `gorm:"not null;default:0;check:return_quantity >= 0" json:"return_quantity"` // actual output reported back
	AssignedAt     time.Time      `gorm:"not null" json:"assigned_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MachineAssignment model
func (MachineAssignment) TableName() string {
	return "machine_assignments"
}
