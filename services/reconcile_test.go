package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

func TestRecordAssignedQuantityExcludesCancelled(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 60)

	seedAssignment(t, db, record, employee.ID, 20, models.AssignmentStatusInProgress)
	seedAssignment(t, db, record, employee.ID, 15, models.AssignmentStatusCompleted)
	cancelled := seedAssignment(t, db, record, employee.ID, 25, models.AssignmentStatusCancelled)

	assigned, err := recordAssignedQuantity(db, record.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 35, assigned, "Cancelled assignments must not count")

	// Excluding an assignment removes its own contribution
	assigned, err = recordAssignedQuantity(db, record.ID, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, assigned)
}

func TestRecordIsComplete(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 60)

	first := seedAssignment(t, db, record, employee.ID, 40, models.AssignmentStatusCompleted)
	_ = first

	complete, err := recordIsComplete(db, record)
	require.NoError(t, err)
	assert.False(t, complete, "Record is not complete while quantity is only partly assigned")

	second := seedAssignment(t, db, record, employee.ID, 20, models.AssignmentStatusInProgress)
	complete, err = recordIsComplete(db, record)
	require.NoError(t, err)
	assert.False(t, complete, "Record is not complete while an assignment is still running")

	require.NoError(t, db.Model(second).Update("status", models.AssignmentStatusCompleted).Error)
	complete, err = recordIsComplete(db, record)
	require.NoError(t, err)
	assert.True(t, complete)

	// A cancelled extra assignment does not break completeness
	seedAssignment(t, db, record, employee.ID, 10, models.AssignmentStatusCancelled)
	complete, err = recordIsComplete(db, record)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestRefreshRecordStatus(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 30)
	seedAssignment(t, db, record, employee.ID, 30, models.AssignmentStatusCompleted)

	status, err := refreshRecordStatus(db, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusComplete, status)
	assert.Equal(t, models.RecordStatusComplete, recordStatus(t, db, record.ID))

	// Re-deriving without any mutation yields the same answer
	status, err = refreshRecordStatus(db, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusComplete, status)
}

func TestDeriveOrderStatus(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)

	// No records: recorded quantity is short of the order quantity
	status, err := deriveOrderStatus(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, status)

	recordA := seedRecord(t, db, order.ID, item.ID, 60)
	recordB := seedRecord(t, db, order.ID, item.ID, 40)
	require.NoError(t, db.Model(recordA).Update("status", models.RecordStatusComplete).Error)

	status, err = deriveOrderStatus(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, status, "One pending record keeps the order open")

	require.NoError(t, db.Model(recordB).Update("status", models.RecordStatusComplete).Error)
	status, err = deriveOrderStatus(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusComplete, status)

	// Idempotence: a second derivation without mutation agrees
	status, err = deriveOrderStatus(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusComplete, status)
}

func TestDeriveOrderStatusDeliveredIsTerminal(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	require.NoError(t, db.Model(order).Update("status", models.OrderStatusDelivered).Error)

	status, err := deriveOrderStatus(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, status, "Delivered orders are never re-derived")
	assert.Equal(t, models.OrderStatusDelivered, orderStatus(t, db, order.ID))
}

func TestIsRetryableTxError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"serialization failure", errors.New("ERROR: could not serialize access due to concurrent update"), true},
		{"deadlock victim", errors.New("deadlock detected"), true},
		{"sqlite locked", errors.New("database is locked"), true},
		{"sqlite busy", errors.New("database is busy"), true},
		{"constraint violation", errors.New("UNIQUE constraint failed: orders.id"), false},
		{"not found", gorm.ErrRecordNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableTxError(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	db := newTestDB(t)

	t.Run("non-retryable error returned as is", func(t *testing.T) {
		sentinel := &NotFoundError{Resource: "order", ID: 7}
		attempts := 0
		err := withRetry(db, func(tx *gorm.DB) error {
			attempts++
			return sentinel
		})
		assert.Equal(t, sentinel, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retryable error exhausts attempts", func(t *testing.T) {
		attempts := 0
		err := withRetry(db, func(tx *gorm.DB) error {
			attempts++
			return errors.New("database is locked")
		})
		assert.Equal(t, maxTxRetries, attempts)

		var txErr *TransactionFailure
		require.ErrorAs(t, err, &txErr)
	})

	t.Run("transient error then success", func(t *testing.T) {
		attempts := 0
		err := withRetry(db, func(tx *gorm.DB) error {
			attempts++
			if attempts == 1 {
				return errors.New("database is locked")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})
}
