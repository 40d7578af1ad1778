package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// BillingService issues invoices against processed orders. All money math
// runs through decimals; invoice numbers are sequential per calendar year.
// Billing never touches the quantity fields the reconciliation rules
// protect.
type BillingService struct {
	db *gorm.DB
}

// NewBillingService creates a new billing service
func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

// InvoiceInput carries the fields for a new invoice.
type InvoiceInput struct {
	OrderID uint
	Amount  decimal.Decimal
	Tax     decimal.Decimal
	Notes   string
}

// InvoiceFilters defines the available filters for listing invoices.
type InvoiceFilters struct {
	CustomerID *uint   `form:"customer_id"`
	Status     *string `form:"status"`
}

// Create issues an invoice for an order. The invoice number is generated
// inside the transaction so concurrent creations cannot collide.
func (s *BillingService) Create(ctx context.Context, input InvoiceInput) (*models.Invoice, error) {
	fields := map[string]string{}
	if input.OrderID == 0 {
		fields["order_id"] = "is required"
	}
	if input.Amount.IsNegative() {
		fields["amount"] = "must not be negative"
	}
	if input.Tax.IsNegative() {
		fields["tax"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, input.OrderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "order", ID: input.OrderID}
		}
		return nil, err
	}

	now := time.Now()
	invoice := models.Invoice{
		CustomerID: order.CustomerID,
		OrderID:    order.ID,
		Amount:     input.Amount,
		Tax:        input.Tax,
		Total:      input.Amount.Add(input.Tax),
		Status:     models.InvoiceStatusIssued,
		IssuedAt:   &now,
		Notes:      input.Notes,
	}

	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		number, err := nextInvoiceNumber(tx, now.Year())
		if err != nil {
			return err
		}
		invoice.InvoiceNo = number
		invoice.ID = 0
		return tx.Create(&invoice).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, &ConflictError{
				Message:   "invoice number collided, please retry",
				Remaining: -1,
			}
		}
		return nil, err
	}

	log.Info().
		Uint("invoice_id", invoice.ID).
		Str("invoice_no", invoice.InvoiceNo).
		Uint("order_id", order.ID).
		Str("total", invoice.Total.String()).
		Msg("Invoice issued")

	return s.Get(ctx, invoice.ID)
}

// Get fetches one invoice with its customer.
func (s *BillingService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Preload("Customer").First(&invoice, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "invoice", ID: id}
		}
		return nil, err
	}
	return &invoice, nil
}

// List returns invoices matching the filters, newest first.
func (s *BillingService) List(ctx context.Context, filters InvoiceFilters) ([]models.Invoice, error) {
	query := s.db.WithContext(ctx).Model(&models.Invoice{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var invoices []models.Invoice
	err := query.Preload("Customer").Order("id DESC").Find(&invoices).Error
	return invoices, err
}

// MarkPaid records payment of an issued invoice. The already-paid check
// and the update run in one locked transaction, so concurrent payment
// calls cannot both succeed.
func (s *BillingService) MarkPaid(ctx context.Context, id uint) (*models.Invoice, error) {
	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := lockForUpdate(tx).First(&invoice, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "invoice", ID: id}
			}
			return err
		}
		if invoice.Status == models.InvoiceStatusPaid {
			return &ConflictError{Message: "invoice is already paid", Remaining: -1}
		}

		now := time.Now()
		return tx.Model(&invoice).Updates(map[string]interface{}{
			"status":  models.InvoiceStatusPaid,
			"paid_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// nextInvoiceNumber derives the next number in the per-year sequence from
// the count of invoices ever issued that year, soft-deleted included.
func nextInvoiceNumber(tx *gorm.DB, year int) (string, error) {
	var count int64
	err := tx.Unscoped().Model(&models.Invoice{}).
		Where("invoice_no LIKE ?", fmt.Sprintf("INV-%d-%%", year)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%04d", year, count+1), nil
}
