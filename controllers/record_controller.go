package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
)

// RecordController handles the record endpoints nested under /orders.
type RecordController struct {
	records *services.RecordService
}

// NewRecordController creates a new record controller
func NewRecordController(records *services.RecordService) *RecordController {
	return &RecordController{records: records}
}

// UpdateRecordRequest represents the request body for updating a record
type UpdateRecordRequest struct {
	ItemID       *uint    `json:"item_id"`
	Quantity     *int     `json:"quantity" binding:"omitempty,gt=0"`
	WashType     *string  `json:"wash_type"`
	ProcessTypes []string `json:"process_types"`
}

// Create handles POST /api/v1/orders/:orderId/records
func (ctrl *RecordController) Create(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	record, err := ctrl.records.Create(c.Request.Context(), orderID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, record)
}

// Get handles GET /api/v1/orders/:orderId/records/:recordId
func (ctrl *RecordController) Get(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	record, err := ctrl.records.Get(c.Request.Context(), orderID, recordID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// Update handles PUT /api/v1/orders/:orderId/records/:recordId
func (ctrl *RecordController) Update(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	record, err := ctrl.records.Update(c.Request.Context(), orderID, recordID, services.UpdateRecordInput{
		ItemID:       req.ItemID,
		Quantity:     req.Quantity,
		WashType:     req.WashType,
		ProcessTypes: req.ProcessTypes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// Delete handles DELETE /api/v1/orders/:orderId/records/:recordId
func (ctrl *RecordController) Delete(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	if err := ctrl.records.Delete(c.Request.Context(), orderID, recordID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Record deleted")
}
