package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// AssignmentService hands portions of a record's quantity to worker and
// machine pairs. Creation is the one genuinely concurrency-sensitive write
// in the system: the remaining-quantity check and the insert execute under
// a row lock on the parent record so concurrent creations cannot jointly
// oversubscribe it.
type AssignmentService struct {
	db *gorm.DB
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

// CreateAssignmentInput carries the fields for a new machine assignment.
type CreateAssignmentInput struct {
	AssignedByID   uint
	Quantity       int
	WashingMachine *string
	DryingMachine  *string
}

// UpdateAssignmentInput patches mutable assignment fields. Nil fields are
// left untouched.
type UpdateAssignmentInput struct {
	Quantity       *int
	WashingMachine *string
	DryingMachine  *string
	Status         *string
	ReturnQuantity *int
}

// RecordStats is the aggregate view of a record's assignments.
type RecordStats struct {
	TotalQuantity         int `json:"total_quantity"`
	AssignedQuantity      int `json:"assigned_quantity"`
	RemainingQuantity     int `json:"remaining_quantity"`
	TotalAssignments      int `json:"total_assignments"`
	CompletedAssignments  int `json:"completed_assignments"`
	InProgressAssignments int `json:"in_progress_assignments"`
	CompletionPercentage  int `json:"completion_percentage"`
}

// Create inserts an assignment against a record with remaining capacity.
// The capacity check re-reads the record under a row lock inside the
// transaction, and the whole sequence is retried on transient aborts.
func (s *AssignmentService) Create(ctx context.Context, recordID uint, input CreateAssignmentInput) (*models.MachineAssignment, error) {
	if input.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be greater than zero")
	}
	if input.AssignedByID == 0 {
		return nil, NewValidationError("assigned_by_id", "is required")
	}

	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, input.AssignedByID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "employee", ID: input.AssignedByID}
		}
		return nil, err
	}

	var assignmentID uint
	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var record models.OrderRecord
		if err := lockForUpdate(tx).First(&record, recordID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "record", ID: recordID}
			}
			return err
		}

		assigned, err := recordAssignedQuantity(tx, recordID, 0)
		if err != nil {
			return err
		}
		remaining := record.Quantity - assigned
		if input.Quantity > remaining {
			return NewCapacityConflict("record", input.Quantity, remaining)
		}

		assignment := models.MachineAssignment{
			RecordID:       recordID,
			OrderID:        record.OrderID,
			AssignedByID:   input.AssignedByID,
			Quantity:       input.Quantity,
			WashingMachine: input.WashingMachine,
			DryingMachine:  input.DryingMachine,
			Status:         models.AssignmentStatusInProgress,
			AssignedAt:     time.Now(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		assignmentID = assignment.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("assignment_id", assignmentID).
		Uint("record_id", recordID).
		Uint("assigned_by", input.AssignedByID).
		Int("quantity", input.Quantity).
		Msg("Machine assignment created")

	return s.Get(ctx, recordID, assignmentID)
}

// Get fetches one assignment of a record with its worker.
func (s *AssignmentService) Get(ctx context.Context, recordID, id uint) (*models.MachineAssignment, error) {
	var assignment models.MachineAssignment
	err := s.db.WithContext(ctx).Preload("AssignedBy").
		Where("record_id = ?", recordID).
		First(&assignment, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "assignment", ID: id}
		}
		return nil, err
	}
	return &assignment, nil
}

// List returns all assignments of a record, oldest first.
func (s *AssignmentService) List(ctx context.Context, recordID uint) ([]models.MachineAssignment, error) {
	var assignments []models.MachineAssignment
	err := s.db.WithContext(ctx).Preload("AssignedBy").
		Where("record_id = ?", recordID).
		Order("id ASC").
		Find(&assignments).Error
	return assignments, err
}

// Update patches an assignment. Two status transitions cascade upward:
// leaving Completed forces the record back to Pending, and reaching
// Completed re-derives the record and order completeness.
func (s *AssignmentService) Update(ctx context.Context, recordID, id uint, input UpdateAssignmentInput) (*models.MachineAssignment, error) {
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, NewValidationError("quantity", "must be greater than zero")
	}
	if input.ReturnQuantity != nil && *input.ReturnQuantity < 0 {
		return nil, NewValidationError("return_quantity", "must not be negative")
	}
	if input.Status != nil && !isValidAssignmentStatus(*input.Status) {
		return nil, NewValidationError("status", fmt.Sprintf("%q is not a valid assignment status", *input.Status))
	}

	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var record models.OrderRecord
		if err := lockForUpdate(tx).First(&record, recordID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "record", ID: recordID}
			}
			return err
		}

		var assignment models.MachineAssignment
		if err := tx.Where("record_id = ?", recordID).First(&assignment, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "assignment", ID: id}
			}
			return err
		}
		oldStatus := assignment.Status

		updates := map[string]interface{}{}
		if input.Quantity != nil {
			assigned, err := recordAssignedQuantity(tx, recordID, id)
			if err != nil {
				return err
			}
			remaining := record.Quantity - assigned
			if *input.Quantity > remaining {
				return NewCapacityConflict("record", *input.Quantity, remaining)
			}
			updates["quantity"] = *input.Quantity
		}
		if input.WashingMachine != nil {
			updates["washing_machine"] = *input.WashingMachine
		}
		if input.DryingMachine != nil {
			updates["drying_machine"] = *input.DryingMachine
		}
		if input.ReturnQuantity != nil {
			updates["return_quantity"] = *input.ReturnQuantity
		}
		if input.Status != nil {
			updates["status"] = *input.Status
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&assignment).Updates(updates).Error; err != nil {
			return err
		}

		if input.Status == nil || *input.Status == oldStatus {
			return nil
		}

		switch {
		case oldStatus == models.AssignmentStatusCompleted && *input.Status == models.AssignmentStatusInProgress:
			// A reopened assignment always forces the record back to
			// Pending, regardless of its siblings.
			if err := tx.Model(&models.OrderRecord{}).
				Where("id = ?", recordID).
				Update("status", models.RecordStatusPending).Error; err != nil {
				return err
			}
			_, err := deriveOrderStatus(tx, record.OrderID)
			return err
		case *input.Status == models.AssignmentStatusCompleted:
			if _, err := refreshRecordStatus(tx, recordID); err != nil {
				return err
			}
			_, err := deriveOrderStatus(tx, record.OrderID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, recordID, id)
}

// Complete marks the assignment Completed, stamps the completion time and
// re-derives record and order completeness.
func (s *AssignmentService) Complete(ctx context.Context, recordID, id uint) (*models.MachineAssignment, error) {
	err := withRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var record models.OrderRecord
		if err := lockForUpdate(tx).First(&record, recordID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "record", ID: recordID}
			}
			return err
		}

		var assignment models.MachineAssignment
		if err := tx.Where("record_id = ?", recordID).First(&assignment, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "assignment", ID: id}
			}
			return err
		}

		now := time.Now()
		err := tx.Model(&assignment).Updates(map[string]interface{}{
			"status":       models.AssignmentStatusCompleted,
			"completed_at": now,
		}).Error
		if err != nil {
			return err
		}

		if _, err := refreshRecordStatus(tx, recordID); err != nil {
			return err
		}
		_, err = deriveOrderStatus(tx, record.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("assignment_id", id).
		Uint("record_id", recordID).
		Msg("Machine assignment completed")

	return s.Get(ctx, recordID, id)
}

// Delete removes the assignment. Derived statuses are not recomputed here;
// callers needing fresh derived state re-query through the derivation
// operations.
func (s *AssignmentService) Delete(ctx context.Context, recordID, id uint) error {
	var assignment models.MachineAssignment
	err := s.db.WithContext(ctx).Where("record_id = ?", recordID).First(&assignment, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Resource: "assignment", ID: id}
		}
		return err
	}
	return s.db.WithContext(ctx).Delete(&assignment).Error
}

// RecordStats aggregates the assignment accounting for one record. Pure
// query, no mutation.
func (s *AssignmentService) RecordStats(ctx context.Context, recordID uint) (*RecordStats, error) {
	var record models.OrderRecord
	if err := s.db.WithContext(ctx).First(&record, recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "record", ID: recordID}
		}
		return nil, err
	}

	var assignments []models.MachineAssignment
	err := s.db.WithContext(ctx).Where("record_id = ?", recordID).Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	stats := RecordStats{TotalQuantity: record.Quantity}
	for _, a := range assignments {
		stats.TotalAssignments++
		switch a.Status {
		case models.AssignmentStatusCancelled:
			continue
		case models.AssignmentStatusCompleted:
			stats.CompletedAssignments++
		case models.AssignmentStatusInProgress:
			stats.InProgressAssignments++
		}
		stats.AssignedQuantity += a.Quantity
	}
	stats.RemainingQuantity = stats.TotalQuantity - stats.AssignedQuantity
	stats.CompletionPercentage = roundPercent(stats.AssignedQuantity, stats.TotalQuantity)
	return &stats, nil
}

func isValidAssignmentStatus(status string) bool {
	switch status {
	case models.AssignmentStatusInProgress, models.AssignmentStatusCompleted, models.AssignmentStatusCancelled:
		return true
	}
	return false
}
