package models

import (
	"time"

	"gorm.io/gorm"
)

// Record statuses. Derived only: Complete iff the record is fully assigned
// and every non-cancelled assignment is completed.
const (
	RecordStatusPending  = "Pending"
	RecordStatusComplete = "Complete"
)

// OrderRecord is a sub-batch of an order's quantity grouped by wash type
// and process-type combination. It is the unit of production tracking; its
// quantity bounds the sum of its machine assignments' quantities.
type OrderRecord struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	OrderID        uint                `gorm:"not null;index" json:"order_id"`
	ItemID         uint                `gorm:"not null" json:"item_id"`
	Item           ItemType            `gorm:"foreignKey:ItemID" json:"item"`
	Quantity       int                 `gorm:"not null;check:quantity > 0" json:"quantity"`
	WashType       string              `gorm:"not null" json:"wash_type"`
	ProcessTypes   ProcessTypeList     `gorm:"type:text;not null" json:"process_types"`
	TrackingNumber string              `gorm:"uniqueIndex;not null" json:"tracking_number"`
	Status         string              `gorm:"not null;default:'Pending'" json:"status"`
	DamageCount    int                 `gorm:"not null;default:0;check:damage_count >= 0" json:"damage_count"`
	DamagePhotoKey *string             `json:"damage_photo_key,omitempty"`            // S3 key for damage evidence
	DamagePhotoURL *string             `gorm:"-" json:"damage_photo_url,omitempty"`   // computed, presigned URL
	Assignments    []MachineAssignment `gorm:"foreignKey:RecordID" json:"assignments,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
}

// TableName specifies the table name for the OrderRecord model
func (OrderRecord) TableName() string {
	return "order_records"
}
