package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// RecordService handles the production sub-batches of an order. Every
// create and update re-checks quantity conservation against the owning
// order inside the same transaction as the write.
type RecordService struct {
	db *gorm.DB
}

// NewRecordService creates a new record service
func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

// RecordInput carries the fields for a new order record.
type RecordInput struct {
	ItemID       uint
	Quantity     int
	WashType     string
	ProcessTypes []string
}

// UpdateRecordInput patches mutable record fields. A nil field is left
// untouched; ProcessTypes replaces the whole set when non-nil.
type UpdateRecordInput struct {
	ItemID       *uint
	Quantity     *int
	WashType     *string
	ProcessTypes []string
}

// validateRecordInput checks the static constraints of a record payload.
func validateRecordInput(input RecordInput) error {
	fields := map[string]string{}
	if input.ItemID == 0 {
		fields["item_id"] = "is required"
	}
	if input.Quantity <= 0 {
		fields["quantity"] = "must be greater than zero"
	}
	if !models.IsValidWashType(input.WashType) {
		fields["wash_type"] = fmt.Sprintf("%q is not a valid wash type", input.WashType)
	}
	if len(input.ProcessTypes) == 0 {
		fields["process_types"] = "at least one process type is required"
	} else {
		for _, p := range input.ProcessTypes {
			if !models.IsValidProcessType(p) {
				fields["process_types"] = fmt.Sprintf("%q is not a valid process type", p)
				break
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// generateTrackingNumber produces the short unique tag printed on the
// physical batch card.
func generateTrackingNumber() string {
	return "TRK-" + strings.ToUpper(uuid.NewString()[:8])
}

// newRecordFromInput builds the model for insertion. Status always starts
// Pending; only the reconciliation helpers move it.
func newRecordFromInput(orderID uint, input RecordInput) models.OrderRecord {
	return models.OrderRecord{
		OrderID:        orderID,
		ItemID:         input.ItemID,
		Quantity:       input.Quantity,
		WashType:       input.WashType,
		ProcessTypes:   models.ProcessTypeList(input.ProcessTypes),
		TrackingNumber: generateTrackingNumber(),
		Status:         models.RecordStatusPending,
	}
}

// Create inserts a record under an order after re-checking, inside the
// transaction, that the order still has capacity for it.
func (s *RecordService) Create(ctx context.Context, orderID uint, input RecordInput) (*models.OrderRecord, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	var recordID uint
	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return err
		}

		recorded, err := orderRecordedQuantity(tx, orderID, 0)
		if err != nil {
			return err
		}
		remaining := order.Quantity - recorded
		if input.Quantity > remaining {
			return NewCapacityConflict("order", input.Quantity, remaining)
		}

		record := newRecordFromInput(orderID, input)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		recordID = record.ID

		_, err = deriveOrderStatus(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("record_id", recordID).
		Uint("order_id", orderID).
		Int("quantity", input.Quantity).
		Str("wash_type", input.WashType).
		Msg("Order record created")

	return s.Get(ctx, orderID, recordID)
}

// Get fetches one record of an order with its item type.
func (s *RecordService) Get(ctx context.Context, orderID, recordID uint) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := s.db.WithContext(ctx).Preload("Item").
		Where("order_id = ?", orderID).
		First(&record, recordID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "record", ID: recordID}
		}
		return nil, err
	}
	return &record, nil
}

// Update patches a record. A quantity change re-runs both conservation
// checks: against the order excluding the record's own prior quantity, and
// against what its assignments already consume.
func (s *RecordService) Update(ctx context.Context, orderID, recordID uint, input UpdateRecordInput) (*models.OrderRecord, error) {
	fields := map[string]string{}
	if input.Quantity != nil && *input.Quantity <= 0 {
		fields["quantity"] = "must be greater than zero"
	}
	if input.WashType != nil && !models.IsValidWashType(*input.WashType) {
		fields["wash_type"] = fmt.Sprintf("%q is not a valid wash type", *input.WashType)
	}
	if input.ProcessTypes != nil {
		if len(input.ProcessTypes) == 0 {
			fields["process_types"] = "at least one process type is required"
		}
		for _, p := range input.ProcessTypes {
			if !models.IsValidProcessType(p) {
				fields["process_types"] = fmt.Sprintf("%q is not a valid process type", p)
				break
			}
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return err
		}

		// Assignment creation locks the record row before summing; a
		// quantity change has to take the same lock, or the two
		// check-then-write sequences interleave on postgres and the
		// assigned total can overshoot the shrunk quantity.
		var record models.OrderRecord
		if err := lockForUpdate(tx).Where("order_id = ?", orderID).First(&record, recordID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "record", ID: recordID}
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.Quantity != nil {
			recorded, err := orderRecordedQuantity(tx, orderID, recordID)
			if err != nil {
				return err
			}
			remaining := order.Quantity - recorded
			if *input.Quantity > remaining {
				return NewCapacityConflict("order", *input.Quantity, remaining)
			}

			assigned, err := recordAssignedQuantity(tx, recordID, 0)
			if err != nil {
				return err
			}
			if *input.Quantity < assigned {
				return &ConflictError{
					Message:   fmt.Sprintf("record quantity %d is below the %d already assigned to machines", *input.Quantity, assigned),
					Remaining: assigned,
				}
			}
			updates["quantity"] = *input.Quantity
		}
		if input.ItemID != nil {
			updates["item_id"] = *input.ItemID
		}
		if input.WashType != nil {
			updates["wash_type"] = *input.WashType
		}
		if input.ProcessTypes != nil {
			updates["process_types"] = models.ProcessTypeList(input.ProcessTypes)
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return err
		}

		// A quantity change can flip the record's own completeness and,
		// through it, the order's.
		if input.Quantity != nil {
			if _, err := refreshRecordStatus(tx, recordID); err != nil {
				return err
			}
		}
		_, err := deriveOrderStatus(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID, recordID)
}

// Delete removes the record and its assignments, then re-derives the
// order's status, all in one transaction.
func (s *RecordService) Delete(ctx context.Context, orderID, recordID uint) error {
	return withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		// Taking the record lock first serializes the delete against
		// assignment creation, which would otherwise commit a live
		// assignment the cascade below never saw.
		var record models.OrderRecord
		if err := lockForUpdate(tx).Where("order_id = ?", orderID).First(&record, recordID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "record", ID: recordID}
			}
			return err
		}

		if err := tx.Where("record_id = ?", recordID).Delete(&models.MachineAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&record).Error; err != nil {
			return err
		}

		_, err := deriveOrderStatus(tx, orderID)
		return err
	})
}

// IsComplete reports whether every non-cancelled assignment of the record
// is Completed and the assignments fully cover the record quantity.
func (s *RecordService) IsComplete(ctx context.Context, recordID uint) (bool, error) {
	var record models.OrderRecord
	if err := s.db.WithContext(ctx).First(&record, recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, &NotFoundError{Resource: "record", ID: recordID}
		}
		return false, err
	}
	return recordIsComplete(s.db.WithContext(ctx), &record)
}

// RemainingQuantity returns the record quantity minus what non-cancelled
// assignments already consume.
func (s *RecordService) RemainingQuantity(ctx context.Context, recordID uint) (int, error) {
	var record models.OrderRecord
	if err := s.db.WithContext(ctx).First(&record, recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, &NotFoundError{Resource: "record", ID: recordID}
		}
		return 0, err
	}
	assigned, err := recordAssignedQuantity(s.db.WithContext(ctx), recordID, 0)
	if err != nil {
		return 0, err
	}
	return record.Quantity - assigned, nil
}

// AttachDamagePhoto stores the storage key of uploaded damage evidence on
// the record.
func (s *RecordService) AttachDamagePhoto(ctx context.Context, orderID, recordID uint, photoKey string) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record, recordID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "record", ID: recordID}
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&record).Update("damage_photo_key", photoKey).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID, recordID)
}
