package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// OrderService handles order-level business logic: creation with optional
// initial records, updates, cascade deletion and status derivation.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates a new order service
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CreateOrderInput carries the fields for a new order. Records, when
// non-empty, are created under the same transaction as the order.
type CreateOrderInput struct {
	CustomerID   uint
	Date         time.Time
	Quantity     int
	DeliveryDate *time.Time
	Notes        string
	Records      []RecordInput
}

// UpdateOrderInput patches mutable order fields. DeliveryQuantityDelta is
// additive: it increments the cumulative delivered count rather than
// replacing it.
type UpdateOrderInput struct {
	Quantity              *int
	Date                  *time.Time
	DeliveryDate          *time.Time
	Notes                 *string
	Status                *string
	DeliveryQuantityDelta *int
}

// DamageInput reports a damage count against one record of an order.
type DamageInput struct {
	RecordID    uint
	DamageCount int
}

// OrderStats aggregates the quantity accounting for one order.
type OrderStats struct {
	RecordedQuantity     int `json:"recorded_quantity"`
	AssignedQuantity     int `json:"assigned_quantity"`
	CompletedQuantity    int `json:"completed_quantity"`
	ReturnQuantity       int `json:"return_quantity"`
	DamageCount          int `json:"damage_count"`
	ActualOutput         int `json:"actual_output"` // returned minus damaged; never touches requested quantities
	CompletionPercentage int `json:"completion_percentage"`
}

// OrderDetails is the full read model for one order.
type OrderDetails struct {
	Order models.Order `json:"order"`
	Stats OrderStats   `json:"stats"`
}

// OrderFilters defines the available filters for listing orders.
type OrderFilters struct {
	CustomerID *uint   `form:"customer_id"`
	Status     *string `form:"status"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

// Create inserts a new order with status Pending, creating any initial
// records in the same transaction.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be greater than zero")
	}
	if input.CustomerID == 0 {
		return nil, NewValidationError("customer_id", "is required")
	}

	recordTotal := 0
	for i, rec := range input.Records {
		if err := validateRecordInput(rec); err != nil {
			return nil, prefixValidationError(fmt.Sprintf("records[%d].", i), err)
		}
		recordTotal += rec.Quantity
	}
	if recordTotal > input.Quantity {
		return nil, NewValidationError("records",
			fmt.Sprintf("record quantities sum to %d which exceeds the order quantity %d", recordTotal, input.Quantity))
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, input.CustomerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "customer", ID: input.CustomerID}
		}
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	order := models.Order{
		CustomerID:   input.CustomerID,
		Date:         date,
		Quantity:     input.Quantity,
		DeliveryDate: input.DeliveryDate,
		Status:       models.OrderStatusPending,
		Notes:        input.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, rec := range input.Records {
			record := newRecordFromInput(order.ID, rec)
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		if len(input.Records) > 0 {
			if _, err := deriveOrderStatus(tx, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("order_id", order.ID).
		Uint("customer_id", order.CustomerID).
		Int("quantity", order.Quantity).
		Int("records", len(input.Records)).
		Msg("Order created")

	return s.Get(ctx, order.ID)
}

// Get fetches one order with its customer.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Customer").First(&order, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "order", ID: id}
		}
		return nil, err
	}
	return &order, nil
}

// List returns orders matching the filters, newest first, with the total
// count for pagination.
func (s *OrderService) List(ctx context.Context, filters OrderFilters) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var orders []models.Order
	err := query.Preload("Customer").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetDetails returns the order with all records, assignments and the
// aggregate quantity accounting.
func (s *OrderService) GetDetails(ctx context.Context, id uint) (*OrderDetails, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Records").
		Preload("Records.Item").
		Preload("Records.Assignments").
		Preload("Records.Assignments.AssignedBy").
		First(&order, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "order", ID: id}
		}
		return nil, err
	}

	stats := OrderStats{}
	for _, record := range order.Records {
		stats.RecordedQuantity += record.Quantity
		stats.DamageCount += record.DamageCount
		for _, a := range record.Assignments {
			if a.Status == models.AssignmentStatusCancelled {
				continue
			}
			stats.AssignedQuantity += a.Quantity
			stats.ReturnQuantity += a.ReturnQuantity
			if a.Status == models.AssignmentStatusCompleted {
				stats.CompletedQuantity += a.Quantity
			}
		}
	}
	stats.ActualOutput = stats.ReturnQuantity - stats.DamageCount
	if order.Quantity > 0 {
		stats.CompletionPercentage = roundPercent(stats.CompletedQuantity, order.Quantity)
	}

	return &OrderDetails{Order: order, Stats: stats}, nil
}

// Update patches order fields. Reducing the quantity below what the
// records already consume is a conflict.
func (s *OrderService) Update(ctx context.Context, id uint, input UpdateOrderInput) (*models.Order, error) {
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be greater than zero")
	}
	if input.DeliveryQuantityDelta != nil && *input.DeliveryQuantityDelta < 0 {
		return nil, NewValidationError("delivery_quantity", "delta must not be negative")
	}
	if input.Status != nil && !isValidOrderStatus(*input.Status) {
		return nil, NewValidationError("status", fmt.Sprintf("%q is not a valid order status", *input.Status))
	}

	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.Quantity != nil {
			recorded, err := orderRecordedQuantity(tx, id, 0)
			if err != nil {
				return err
			}
			if *input.Quantity < recorded {
				return &ConflictError{
					Message:   fmt.Sprintf("order quantity %d is below the %d already consumed by its records", *input.Quantity, recorded),
					Remaining: recorded,
				}
			}
			updates["quantity"] = *input.Quantity
		}
		if input.Date != nil {
			updates["date"] = *input.Date
		}
		if input.DeliveryDate != nil {
			updates["delivery_date"] = *input.DeliveryDate
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if input.Status != nil {
			updates["status"] = *input.Status
		}
		if input.DeliveryQuantityDelta != nil {
			updates["delivery_quantity"] = gorm.Expr("delivery_quantity + ?", *input.DeliveryQuantityDelta)
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		// A changed requested quantity can flip completeness either way.
		if input.Quantity != nil && input.Status == nil {
			if _, err := deriveOrderStatus(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the order and cascades to all of its records and their
// assignments in a single transaction.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	return withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		// Record creation locks the order row before its capacity check;
		// the cascade takes the same lock so no record slips in between
		// the reads and the soft deletes.
		var order models.Order
		if err := lockForUpdate(tx).First(&order, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return err
		}

		if err := tx.Where("order_id = ?", id).Delete(&models.MachineAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&order).Error; err != nil {
			return err
		}

		log.Info().Uint("order_id", id).Msg("Order deleted with all records and assignments")
		return nil
	})
}

// DeriveStatus recomputes the order's status from its records and returns
// the derived value.
func (s *OrderService) DeriveStatus(ctx context.Context, id uint) (string, error) {
	var status string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return err
		}
		derived, err := deriveOrderStatus(tx, id)
		if err != nil {
			return err
		}
		status = derived
		return nil
	})
	return status, err
}

// RecordDamage adds damage counts to records of the order. Damage never
// mutates any requested quantity; it only feeds the actual-output figure
// and, when the order was already Complete, forces a QC hold.
func (s *OrderService) RecordDamage(ctx context.Context, orderID uint, damages []DamageInput) (*models.Order, error) {
	if len(damages) == 0 {
		return nil, NewValidationError("damages", "at least one damage entry is required")
	}
	totalDamage := 0
	for i, d := range damages {
		if d.DamageCount < 0 {
			return nil, NewValidationError(fmt.Sprintf("damages[%d].damage_count", i), "must not be negative")
		}
		totalDamage += d.DamageCount
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return err
		}

		for _, d := range damages {
			var record models.OrderRecord
			if err := tx.Where("order_id = ?", orderID).First(&record, d.RecordID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &NotFoundError{Resource: "record", ID: d.RecordID}
				}
				return err
			}
			err := tx.Model(&record).
				Update("damage_count", gorm.Expr("damage_count + ?", d.DamageCount)).Error
			if err != nil {
				return err
			}
		}

		if order.Status == models.OrderStatusComplete && totalDamage > 0 {
			if err := tx.Model(&order).Update("status", models.OrderStatusQC).Error; err != nil {
				return err
			}
			log.Info().
				Uint("order_id", orderID).
				Int("damage", totalDamage).
				Msg("Damage reported against completed order, forcing QC hold")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func isValidOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusInProgress, models.OrderStatusQC,
		models.OrderStatusComplete, models.OrderStatusDelivered:
		return true
	}
	return false
}

// roundPercent computes round(part/whole*100) without going through
// floating point surprises for the common exact cases.
func roundPercent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(float64(part)/float64(whole)*100 + 0.5)
}
