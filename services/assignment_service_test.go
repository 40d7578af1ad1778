package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tharun-raj/washtrack-api/models"
)

func TestAssignmentCreateValidation(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 30)
	svc := NewAssignmentService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 0})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "quantity")

	_, err = svc.Create(ctx, record.ID, CreateAssignmentInput{Quantity: 10})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "assigned_by_id")

	_, err = svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: 99, Quantity: 10})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "employee", nf.Resource)

	_, err = svc.Create(ctx, 999, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 10})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "record", nf.Resource)
}

func TestAssignmentCreateCapacity(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 30)
	svc := NewAssignmentService(db)
	ctx := context.Background()

	first, err := svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusInProgress, first.Status)
	assert.Equal(t, order.ID, first.OrderID, "Order id is denormalized from the record")
	assert.False(t, first.AssignedAt.IsZero())
	assert.Equal(t, employee.Name, first.AssignedBy.Name)

	_, err = svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 15})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 10, conflict.Remaining)

	var count int64
	db.Model(&models.MachineAssignment{}).Count(&count)
	assert.Equal(t, int64(1), count, "Rejected create must not write a row")

	// Cancelling the first assignment releases its quantity
	cancelled := models.AssignmentStatusCancelled
	_, err = svc.Update(ctx, record.ID, first.ID, UpdateAssignmentInput{Status: &cancelled})
	require.NoError(t, err)

	_, err = svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 30})
	require.NoError(t, err)
}

func TestAssignmentCompleteCascades(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 60)
	record := seedRecord(t, db, order.ID, item.ID, 60)
	svc := NewAssignmentService(db)
	ctx := context.Background()

	first, err := svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 40})
	require.NoError(t, err)
	second, err := svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 20})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, record.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, models.RecordStatusPending, recordStatus(t, db, record.ID), "One open assignment keeps the record pending")

	_, err = svc.Complete(ctx, record.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusComplete, recordStatus(t, db, record.ID))
	assert.Equal(t, models.OrderStatusComplete, orderStatus(t, db, order.ID), "Completion rolls up to the order")
}

func TestAssignmentDowngradeForcesPending(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 60)
	record := seedRecord(t, db, order.ID, item.ID, 60)
	a := seedAssignment(t, db, record, employee.ID, 40, models.AssignmentStatusCompleted)
	seedAssignment(t, db, record, employee.ID, 20, models.AssignmentStatusCompleted)
	require.NoError(t, db.Model(record).Update("status", models.RecordStatusComplete).Error)
	require.NoError(t, db.Model(order).Update("status", models.OrderStatusComplete).Error)

	svc := NewAssignmentService(db)
	inProgress := models.AssignmentStatusInProgress
	updated, err := svc.Update(context.Background(), record.ID, a.ID, UpdateAssignmentInput{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusInProgress, updated.Status)
	assert.Equal(t, models.RecordStatusPending, recordStatus(t, db, record.ID),
		"A single reopened assignment forces the record back to Pending")
	assert.Equal(t, models.OrderStatusPending, orderStatus(t, db, order.ID))
}

func TestAssignmentUpdateQuantityExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 30)
	svc := NewAssignmentService(db)
	ctx := context.Background()

	a, err := svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 20})
	require.NoError(t, err)

	newQty := 30
	updated, err := svc.Update(ctx, record.ID, a.ID, UpdateAssignmentInput{Quantity: &newQty})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Quantity)

	newQty = 31
	_, err = svc.Update(ctx, record.ID, a.ID, UpdateAssignmentInput{Quantity: &newQty})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 30, conflict.Remaining)
}

func TestAssignmentUpdateMachinesAndReturn(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 30)
	svc := NewAssignmentService(db)
	ctx := context.Background()

	a, err := svc.Create(ctx, record.ID, CreateAssignmentInput{AssignedByID: employee.ID, Quantity: 20})
	require.NoError(t, err)

	washer := "W-03"
	dryer := "D-01"
	returned := 18
	updated, err := svc.Update(ctx, record.ID, a.ID, UpdateAssignmentInput{
		WashingMachine: &washer,
		DryingMachine:  &dryer,
		ReturnQuantity: &returned,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.WashingMachine)
	assert.Equal(t, "W-03", *updated.WashingMachine)
	require.NotNil(t, updated.DryingMachine)
	assert.Equal(t, "D-01", *updated.DryingMachine)
	assert.Equal(t, 18, updated.ReturnQuantity)
	assert.Equal(t, models.AssignmentStatusInProgress, updated.Status, "Machine changes do not cascade")

	bad := "Paused"
	_, err = svc.Update(ctx, record.ID, a.ID, UpdateAssignmentInput{Status: &bad})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "status")
}

func TestAssignmentDeleteDoesNotRecompute(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 60)
	record := seedRecord(t, db, order.ID, item.ID, 60)
	a := seedAssignment(t, db, record, employee.ID, 60, models.AssignmentStatusCompleted)
	require.NoError(t, db.Model(record).Update("status", models.RecordStatusComplete).Error)

	svc := NewAssignmentService(db)
	require.NoError(t, svc.Delete(context.Background(), record.ID, a.ID))

	// Derived state goes stale until the next derivation is asked for
	assert.Equal(t, models.RecordStatusComplete, recordStatus(t, db, record.ID))

	status, err := refreshRecordStatus(db, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, status)
}

func TestAssignmentRecordStats(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 80)

	seedAssignment(t, db, record, employee.ID, 30, models.AssignmentStatusCompleted)
	seedAssignment(t, db, record, employee.ID, 30, models.AssignmentStatusInProgress)
	seedAssignment(t, db, record, employee.ID, 10, models.AssignmentStatusCancelled)

	svc := NewAssignmentService(db)
	stats, err := svc.RecordStats(context.Background(), record.ID)
	require.NoError(t, err)

	assert.Equal(t, 80, stats.TotalQuantity)
	assert.Equal(t, 60, stats.AssignedQuantity, "Cancelled assignments do not consume quantity")
	assert.Equal(t, 20, stats.RemainingQuantity)
	assert.Equal(t, 3, stats.TotalAssignments)
	assert.Equal(t, 1, stats.CompletedAssignments)
	assert.Equal(t, 1, stats.InProgressAssignments)
	assert.Equal(t, 75, stats.CompletionPercentage)

	_, err = svc.RecordStats(context.Background(), 999)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

// TestAssignmentConcurrentCreation issues more concurrent creations than
// the record has capacity for. Exactly the subset that fits may succeed;
// the accepted quantities must never oversubscribe the record.
func TestAssignmentConcurrentCreation(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db)
	employee := seedEmployee(t, db)
	item := seedItem(t, db)
	order := seedOrder(t, db, customer.ID, 100)
	record := seedRecord(t, db, order.ID, item.ID, 50)
	svc := NewAssignmentService(db)

	var accepted, rejected int64
	g := new(errgroup.Group)
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := svc.Create(context.Background(), record.ID, CreateAssignmentInput{
				AssignedByID: employee.ID,
				Quantity:     10,
			})
			if err == nil {
				atomic.AddInt64(&accepted, 1)
				return nil
			}
			var conflict *ConflictError
			var txFailure *TransactionFailure
			if errors.As(err, &conflict) || errors.As(err, &txFailure) {
				atomic.AddInt64(&rejected, 1)
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(10), accepted+rejected)
	assert.LessOrEqual(t, accepted, int64(5))

	assigned, err := recordAssignedQuantity(db, record.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int(accepted)*10, assigned)
	assert.LessOrEqual(t, assigned, 50, "Concurrent creations must never oversubscribe the record")
}
