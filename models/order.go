package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses. Pending and Complete are derived from child records;
// QC is a manual quality-control hold, Delivered is terminal.
const (
	OrderStatusPending    = "Pending"
	OrderStatusInProgress = "In Progress"
	OrderStatusQC         = "QC"
	OrderStatusComplete   = "Complete"
	OrderStatusDelivered  = "Delivered"
)

// Order represents a customer's request for a quantity of garments to be
// washed and finished by a delivery date. The requested quantity bounds the
// sum of its records' quantities; it is fixed at creation and only ever
// reduced down to what the records already consume.
type Order struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CustomerID       uint           `gorm:"not null;index" json:"customer_id"`
	Customer         Customer       `gorm:"foreignKey:CustomerID" json:"customer"`
	Date             time.Time      `gorm:"not null" json:"date"`
	Quantity         int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	DeliveryDate     *time.Time     `json:"delivery_date"`
	Status           string         `gorm:"not null;default:'Pending'" json:"status"`
	DeliveryQuantity int            `gorm:"not null;default:0" json:"delivery_quantity"` // cumulative delivered count
	Notes            string         `gorm:"type:text" json:"notes"`
	Records          []OrderRecord  `gorm:"foreignKey:OrderID" json:"records,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
