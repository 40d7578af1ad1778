package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice statuses
const (
	InvoiceStatusDraft  = "draft"
	InvoiceStatusIssued = "issued"
	InvoiceStatusPaid   = "paid"
)

// Invoice bills a customer for a processed order. Amounts are decimals so
// money math never goes through floats; invoice numbers are generated
// sequentially per year (INV-2026-0001).
type Invoice struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	InvoiceNo  string          `gorm:"uniqueIndex;not null" json:"invoice_no"`
	CustomerID uint            `gorm:"not null;index" json:"customer_id"`
	Customer   Customer        `gorm:"foreignKey:CustomerID" json:"customer"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Tax        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status     string          `gorm:"not null;default:'draft'" json:"status"`
	IssuedAt   *time.Time      `json:"issued_at,omitempty"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}
