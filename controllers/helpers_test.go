package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
	"github.com/tharun-raj/washtrack-api/services"
)

// setupControllerTest wires the controllers against an in-memory database,
// mirroring the production route layout.
func setupControllerTest(t *testing.T) (*gin.Engine, *gorm.DB, *services.MockImageService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Employee{},
		&models.ItemType{},
		&models.Order{},
		&models.OrderRecord{},
		&models.MachineAssignment{},
		&models.Invoice{},
	))
	require.NoError(t, db.Create(&models.ItemType{Name: "jeans"}).Error)

	images := services.NewMockImageService()
	orders := services.NewOrderService(db)
	records := services.NewRecordService(db)
	assignments := services.NewAssignmentService(db)
	customers := services.NewCustomerService(db)
	employees := services.NewEmployeeService(db)
	billing := services.NewBillingService(db)

	orderCtrl := NewOrderController(orders)
	recordCtrl := NewRecordController(records)
	assignmentCtrl := NewAssignmentController(assignments)
	customerCtrl := NewCustomerController(customers)
	employeeCtrl := NewEmployeeController(employees)
	billingCtrl := NewBillingController(billing)
	uploadCtrl := NewUploadController(images, records)

	router := gin.New()
	v1 := router.Group("/api/v1")

	v1.POST("/orders", orderCtrl.Create)
	v1.GET("/orders", orderCtrl.List)
	v1.GET("/orders/:orderId", orderCtrl.Get)
	v1.PUT("/orders/:orderId", orderCtrl.Update)
	v1.DELETE("/orders/:orderId", orderCtrl.Delete)
	v1.GET("/orders/:orderId/details", orderCtrl.GetDetails)
	v1.POST("/orders/:orderId/damage-records", orderCtrl.RecordDamage)
	v1.POST("/orders/:orderId/status", orderCtrl.DeriveStatus)
	v1.POST("/orders/:orderId/records", recordCtrl.Create)
	v1.GET("/orders/:orderId/records/:recordId", recordCtrl.Get)
	v1.PUT("/orders/:orderId/records/:recordId", recordCtrl.Update)
	v1.DELETE("/orders/:orderId/records/:recordId", recordCtrl.Delete)
	v1.POST("/orders/:orderId/records/:recordId/damage-photo", uploadCtrl.UploadDamagePhoto)

	v1.POST("/records/:recordId/assignments", assignmentCtrl.Create)
	v1.GET("/records/:recordId/assignments", assignmentCtrl.List)
	v1.GET("/records/:recordId/assignments/stats", assignmentCtrl.Stats)
	v1.PUT("/records/:recordId/assignments/:id", assignmentCtrl.Update)
	v1.PUT("/records/:recordId/assignments/:id/complete", assignmentCtrl.Complete)
	v1.DELETE("/records/:recordId/assignments/:id", assignmentCtrl.Delete)

	v1.POST("/customers", customerCtrl.Create)
	v1.GET("/customers", customerCtrl.List)
	v1.GET("/customers/:id", customerCtrl.Get)
	v1.PUT("/customers/:id", customerCtrl.Update)
	v1.DELETE("/customers/:id", customerCtrl.Delete)

	v1.POST("/employees", employeeCtrl.Create)
	v1.GET("/employees", employeeCtrl.List)

	v1.POST("/invoices", billingCtrl.Create)
	v1.GET("/invoices", billingCtrl.List)
	v1.GET("/invoices/:id", billingCtrl.Get)
	v1.PUT("/invoices/:id/payment", billingCtrl.MarkPaid)

	return router, db, images
}

// request performs an HTTP request against the test router and decodes the
// JSON response envelope.
func request(t *testing.T, router *gin.Engine, method, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w.Code, decoded
}

func data(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", response)
	return d
}

// seedWorkflow creates a customer, an employee and an order with one record
// through the API, returning their IDs.
func seedWorkflow(t *testing.T, router *gin.Engine, orderQty, recordQty int) (customerID, employeeID, orderID, recordID uint) {
	t.Helper()

	code, resp := request(t, router, http.MethodPost, "/api/v1/customers", gin.H{
		"name":   "Denim Works",
		"mobile": "9876543210",
	})
	require.Equal(t, http.StatusCreated, code, "customer: %v", resp)
	customerID = uint(data(t, resp)["id"].(float64))

	code, resp = request(t, router, http.MethodPost, "/api/v1/employees", gin.H{
		"name": "Ravi Kumar",
	})
	require.Equal(t, http.StatusCreated, code, "employee: %v", resp)
	employeeID = uint(data(t, resp)["id"].(float64))

	code, resp = request(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"customer_id": customerID,
		"quantity":    orderQty,
	})
	require.Equal(t, http.StatusCreated, code, "order: %v", resp)
	orderID = uint(data(t, resp)["id"].(float64))

	if recordQty > 0 {
		code, resp = request(t, router, http.MethodPost, orderPath(orderID)+"/records", gin.H{
			"item_id":       1,
			"quantity":      recordQty,
			"wash_type":     "heavy",
			"process_types": []string{"sand_blast"},
		})
		require.Equal(t, http.StatusCreated, code, "record: %v", resp)
		recordID = uint(data(t, resp)["id"].(float64))
	}
	return customerID, employeeID, orderID, recordID
}

func orderPath(orderID uint) string {
	return "/api/v1/orders/" + itoa(orderID)
}

func recordPath(recordID uint) string {
	return "/api/v1/records/" + itoa(recordID)
}

func itoa(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
