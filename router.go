package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/cache"
	"github.com/tharun-raj/washtrack-api/config"
	"github.com/tharun-raj/washtrack-api/controllers"
	"github.com/tharun-raj/washtrack-api/middleware"
	"github.com/tharun-raj/washtrack-api/services"
)

// newRouter wires the full HTTP surface. Auth is attached only when an
// Auth0 domain is configured, so tests and local development can run
// without a tenant.
func newRouter(cfg *config.Config, db *gorm.DB, images services.ImageService, c *cache.RedisCache) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	orders := services.NewOrderService(db)
	records := services.NewRecordService(db)
	assignments := services.NewAssignmentService(db)
	customers := services.NewCustomerService(db)
	employees := services.NewEmployeeService(db)
	billing := services.NewBillingService(db)
	dashboard := services.NewDashboardService(db, c)

	orderCtrl := controllers.NewOrderController(orders)
	recordCtrl := controllers.NewRecordController(records)
	assignmentCtrl := controllers.NewAssignmentController(assignments)
	customerCtrl := controllers.NewCustomerController(customers)
	employeeCtrl := controllers.NewEmployeeController(employees)
	billingCtrl := controllers.NewBillingController(billing)
	dashboardCtrl := controllers.NewDashboardController(dashboard)
	referenceCtrl := controllers.NewReferenceController(db)
	uploadCtrl := controllers.NewUploadController(images, records)

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthCheck)
	v1.GET("/database/status", databaseStatus(db))

	if cfg.Auth0Domain != "" {
		v1.Use(middleware.EnsureValidToken(cfg))
	}

	v1.POST("/orders", orderCtrl.Create)
	v1.GET("/orders", orderCtrl.List)
	v1.GET("/orders/:orderId", orderCtrl.Get)
	v1.GET("/orders/:orderId/details", orderCtrl.GetDetails)
	v1.PUT("/orders/:orderId", orderCtrl.Update)
	v1.DELETE("/orders/:orderId", orderCtrl.Delete)
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

	v1.GET("/dashboard/summary", dashboardCtrl.Summary)

	v1.GET("/reference/wash-types", referenceCtrl.WashTypes)
	v1.GET("/reference/process-types", referenceCtrl.ProcessTypes)
	v1.GET("/reference/item-types", referenceCtrl.ItemTypes)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "WashTrack API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
		})
	}
}
