package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// newTestDB opens an in-memory SQLite database with the full schema. A
// single pooled connection keeps every query on the same database and
// serializes concurrent transactions the way SQLite's writer lock would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Customer{},
		&models.Employee{},
		&models.ItemType{},
		&models.Order{},
		&models.OrderRecord{},
		&models.MachineAssignment{},
		&models.Invoice{},
	)
	require.NoError(t, err, "Failed to migrate test database")
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB) *models.Customer {
	t.Helper()
	customer := models.Customer{
		Code:   "CUST-9001",
		Name:   "Denim Works",
		Mobile: "9876543210",
	}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}

func seedEmployee(t *testing.T, db *gorm.DB) *models.Employee {
	t.Helper()
	employee := models.Employee{Name: "Ravi Kumar", Role: "operator"}
	require.NoError(t, db.Create(&employee).Error)
	return &employee
}

func seedItem(t *testing.T, db *gorm.DB) *models.ItemType {
	t.Helper()
	item := models.ItemType{Name: "jeans"}
	require.NoError(t, db.Create(&item).Error)
	return &item
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uint, quantity int) *models.Order {
	t.Helper()
	order := models.Order{
		CustomerID: customerID,
		Date:       time.Now(),
		Quantity:   quantity,
		Status:     models.OrderStatusPending,
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func seedRecord(t *testing.T, db *gorm.DB, orderID, itemID uint, quantity int) *models.OrderRecord {
	t.Helper()
	record := models.OrderRecord{
		OrderID:        orderID,
		ItemID:         itemID,
		Quantity:       quantity,
		WashType:       models.WashHeavy,
		ProcessTypes:   models.ProcessTypeList{models.ProcessSandBlast},
		TrackingNumber: generateTrackingNumber(),
		Status:         models.RecordStatusPending,
	}
	require.NoError(t, db.Create(&record).Error)
	return &record
}

func seedAssignment(t *testing.T, db *gorm.DB, record *models.OrderRecord, employeeID uint, quantity int, status string) *models.MachineAssignment {
	t.Helper()
	assignment := models.MachineAssignment{
		RecordID:     record.ID,
		OrderID:      record.OrderID,
		AssignedByID: employeeID,
		Quantity:     quantity,
		Status:       status,
		AssignedAt:   time.Now(),
	}
	require.NoError(t, db.Create(&assignment).Error)
	return &assignment
}

// orderStatus re-reads an order's status column.
func orderStatus(t *testing.T, db *gorm.DB, orderID uint) string {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, orderID).Error)
	return order.Status
}

// recordStatus re-reads a record's status column.
func recordStatus(t *testing.T, db *gorm.DB, recordID uint) string {
	t.Helper()
	var record models.OrderRecord
	require.NoError(t, db.First(&record, recordID).Error)
	return record.Status
}
