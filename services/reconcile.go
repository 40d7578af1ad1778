package services

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tharun-raj/washtrack-api/models"
)

// Quantity reconciliation rules. Every status derivation and conservation
// sum in the service layer goes through the helpers in this file, so the
// completion arithmetic exists exactly once.
//
// The invariants enforced here:
//   - sum of active record quantities for an order never exceeds the
//     order quantity
//   - sum of non-cancelled assignment quantities for a record never
//     exceeds the record quantity
//   - a record is Complete only when it is fully assigned and every
//     non-cancelled assignment is Completed; an order is Complete only
//     when every record is Complete and the records fully cover the
//     order quantity

const maxTxRetries = 3

// lockForUpdate applies a row-level lock on postgres. SQLite has no
// FOR UPDATE in its grammar; its single-writer connection lock serializes
// concurrent transactions instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isRetryableTxError reports whether a transaction failed for a transient
// reason (serialization conflict, deadlock victim, sqlite busy writer).
func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "serialization") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "busy")
}

// withRetry runs fn in a transaction, retrying the whole check-then-write
// sequence a bounded number of times on transient aborts.
func withRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("Transaction aborted, retrying")
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	return &TransactionFailure{Err: err}
}

// recordAssignedQuantity sums the quantities of a record's non-cancelled
// assignments, optionally excluding one assignment (its own prior quantity
// during an update).
func recordAssignedQuantity(tx *gorm.DB, recordID uint, excludeID uint) (int, error) {
	query := tx.Model(&models.MachineAssignment{}).
		Where("record_id = ? AND status <> ?", recordID, models.AssignmentStatusCancelled)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var total int64
	if err := query.Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// orderRecordedQuantity sums the quantities of an order's active records,
// optionally excluding one record.
func orderRecordedQuantity(tx *gorm.DB, orderID uint, excludeID uint) (int, error) {
	query := tx.Model(&models.OrderRecord{}).Where("order_id = ?", orderID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var total int64
	if err := query.Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// recordIsComplete reports whether a record is fully assigned and every
// non-cancelled assignment is Completed.
func recordIsComplete(tx *gorm.DB, record *models.OrderRecord) (bool, error) {
	assigned, err := recordAssignedQuantity(tx, record.ID, 0)
	if err != nil {
		return false, err
	}
	if assigned != record.Quantity {
		return false, nil
	}

	var open int64
	err = tx.Model(&models.MachineAssignment{}).
		Where("record_id = ? AND status NOT IN ?", record.ID,
			[]string{models.AssignmentStatusCompleted, models.AssignmentStatusCancelled}).
		Count(&open).Error
	if err != nil {
		return false, err
	}
	return open == 0, nil
}

// refreshRecordStatus re-derives a record's status from its assignments
// and persists it when it changed. Returns the derived status.
func refreshRecordStatus(tx *gorm.DB, recordID uint) (string, error) {
	var record models.OrderRecord
	if err := tx.First(&record, recordID).Error; err != nil {
		return "", err
	}

	complete, err := recordIsComplete(tx, &record)
	if err != nil {
		return "", err
	}

	status := models.RecordStatusPending
	if complete {
		status = models.RecordStatusComplete
	}
	if status != record.Status {
		if err := tx.Model(&record).Update("status", status).Error; err != nil {
			return "", err
		}
	}
	return status, nil
}

// deriveOrderStatus recomputes an order's status from its records and
// persists it when it changed. Delivered is terminal and left alone; a QC
// hold lasts until the next quantity or assignment mutation triggers this
// derivation again.
func deriveOrderStatus(tx *gorm.DB, orderID uint) (string, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		return "", err
	}
	if order.Status == models.OrderStatusDelivered {
		return order.Status, nil
	}

	recorded, err := orderRecordedQuantity(tx, orderID, 0)
	if err != nil {
		return "", err
	}

	var pending int64
	err = tx.Model(&models.OrderRecord{}).
		Where("order_id = ? AND status <> ?", orderID, models.RecordStatusComplete).
		Count(&pending).Error
	if err != nil {
		return "", err
	}

	status := models.OrderStatusPending
	if pending == 0 && recorded == order.Quantity {
		status = models.OrderStatusComplete
	}
	if status != order.Status {
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return "", err
		}
	}
	return status, nil
}
