package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
)

// OrderController handles the /orders endpoints. It only parses requests
// and formats responses; all quantity and status rules live in the
// service layer.
type OrderController struct {
	orders *services.OrderService
}

// NewOrderController creates a new order controller
func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// CreateRecordRequest is the payload for one record, standalone or nested
// in an order creation.
type CreateRecordRequest struct {
	ItemID       uint     `json:"item_id" binding:"required"`
	Quantity     int      `json:"quantity" binding:"required,gt=0"`
	WashType     string   `json:"wash_type" binding:"required"`
	ProcessTypes []string `json:"process_types" binding:"required,min=1"`
}

func (r CreateRecordRequest) toInput() services.RecordInput {
	return services.RecordInput{
		ItemID:       r.ItemID,
		Quantity:     r.Quantity,
		WashType:     r.WashType,
		ProcessTypes: r.ProcessTypes,
	}
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	CustomerID   uint                  `json:"customer_id" binding:"required"`
	Date         *time.Time            `json:"date"`
	Quantity     int                   `json:"quantity" binding:"required,gt=0"`
	DeliveryDate *time.Time            `json:"delivery_date"`
	Notes        string                `json:"notes"`
	Records      []CreateRecordRequest `json:"records" binding:"omitempty,dive"`
}

// UpdateOrderRequest represents the request body for updating an order.
// DeliveryQuantityDelta is additive; absolute delivery counts are never
// accepted.
type UpdateOrderRequest struct {
	Quantity              *int       `json:"quantity" binding:"omitempty,gt=0"`
	Date                  *time.Time `json:"date"`
	DeliveryDate          *time.Time `json:"delivery_date"`
	Notes                 *string    `json:"notes"`
	Status                *string    `json:"status"`
	DeliveryQuantityDelta *int       `json:"delivery_quantity_delta" binding:"omitempty,gte=0"`
}

// DamageEntry reports a damage count against one record.
type DamageEntry struct {
	RecordID    uint `json:"record_id" binding:"required"`
	DamageCount int  `json:"damage_count" binding:"gte=0"`
}

// RecordDamageRequest represents the request body for reporting damage
type RecordDamageRequest struct {
	Damages []DamageEntry `json:"damages" binding:"required,min=1,dive"`
}

// Create handles POST /api/v1/orders
func (ctrl *OrderController) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	input := services.CreateOrderInput{
		CustomerID:   req.CustomerID,
		Quantity:     req.Quantity,
		DeliveryDate: req.DeliveryDate,
		Notes:        req.Notes,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	for _, rec := range req.Records {
		input.Records = append(input.Records, rec.toInput())
	}

	order, err := ctrl.orders.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, order)
}

// Get handles GET /api/v1/orders/:orderId
func (ctrl *OrderController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	order, err := ctrl.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// GetDetails handles GET /api/v1/orders/:orderId/details
func (ctrl *OrderController) GetDetails(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	details, err := ctrl.orders.GetDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, details)
}

// List handles GET /api/v1/orders
func (ctrl *OrderController) List(c *gin.Context) {
	var filters services.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindingError(c, err)
		return
	}

	orders, total, err := ctrl.orders.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"orders": orders, "total": total})
}

// Update handles PUT /api/v1/orders/:orderId
func (ctrl *OrderController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	order, err := ctrl.orders.Update(c.Request.Context(), id, services.UpdateOrderInput{
		Quantity:              req.Quantity,
		Date:                  req.Date,
		DeliveryDate:          req.DeliveryDate,
		Notes:                 req.Notes,
		Status:                req.Status,
		DeliveryQuantityDelta: req.DeliveryQuantityDelta,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// Delete handles DELETE /api/v1/orders/:orderId
func (ctrl *OrderController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	if err := ctrl.orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Order deleted")
}

// RecordDamage handles POST /api/v1/orders/:orderId/damage-records
func (ctrl *OrderController) RecordDamage(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	var req RecordDamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	damages := make([]services.DamageInput, 0, len(req.Damages))
	for _, d := range req.Damages {
		damages = append(damages, services.DamageInput{
			RecordID:    d.RecordID,
			DamageCount: d.DamageCount,
		})
	}

	order, err := ctrl.orders.RecordDamage(c.Request.Context(), id, damages)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// DeriveStatus handles POST /api/v1/orders/:orderId/status. It recomputes
// the order status from its records and returns the derived value.
func (ctrl *OrderController) DeriveStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	status, err := ctrl.orders.DeriveStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"status": status})
}
