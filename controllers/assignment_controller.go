package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
)

// AssignmentController handles the assignment endpoints nested under
// /records.
type AssignmentController struct {
	assignments *services.AssignmentService
}

// NewAssignmentController creates a new assignment controller
func NewAssignmentController(assignments *services.AssignmentService) *AssignmentController {
	return &AssignmentController{assignments: assignments}
}

// CreateAssignmentRequest represents the request body for creating an assignment
type CreateAssignmentRequest struct {
	AssignedByID   uint    `json:"assigned_by_id" binding:"required"`
	Quantity       int     `json:"quantity" binding:"required,gt=0"`
	WashingMachine *string `json:"washing_machine"`
	DryingMachine  *string `json:"drying_machine"`
}

// UpdateAssignmentRequest represents the request body for updating an assignment
type UpdateAssignmentRequest struct {
	Quantity       *int    `json:"quantity" binding:"omitempty,gt=0"`
	WashingMachine *string `json:"washing_machine"`
	DryingMachine  *string `json:"drying_machine"`
	Status         *string `json:"status"`
	ReturnQuantity *int    `json:"return_quantity" binding:"omitempty,gte=0"`
}

// Create handles POST /api/v1/records/:recordId/assignments
func (ctrl *AssignmentController) Create(c *gin.Context) {
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	assignment, err := ctrl.assignments.Create(c.Request.Context(), recordID, services.CreateAssignmentInput{
		AssignedByID:   req.AssignedByID,
		Quantity:       req.Quantity,
		WashingMachine: req.WashingMachine,
		DryingMachine:  req.DryingMachine,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, assignment)
}

// List handles GET /api/v1/records/:recordId/assignments
func (ctrl *AssignmentController) List(c *gin.Context) {
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	assignments, err := ctrl.assignments.List(c.Request.Context(), recordID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, assignments)
}

// Update handles PUT /api/v1/records/:recordId/assignments/:id
func (ctrl *AssignmentController) Update(c *gin.Context) {
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	assignment, err := ctrl.assignments.Update(c.Request.Context(), recordID, id, services.UpdateAssignmentInput{
		Quantity:       req.Quantity,
		WashingMachine: req.WashingMachine,
		DryingMachine:  req.DryingMachine,
		Status:         req.Status,
		ReturnQuantity: req.ReturnQuantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, assignment)
}

// Complete handles PUT /api/v1/records/:recordId/assignments/:id/complete
func (ctrl *AssignmentController) Complete(c *gin.Context) {
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assignment, err := ctrl.assignments.Complete(c.Request.Context(), recordID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, assignment)
}

// Delete handles DELETE /api/v1/records/:recordId/assignments/:id
func (ctrl *AssignmentController) Delete(c *gin.Context) {
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.assignments.Delete(c.Request.Context(), recordID, id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Assignment deleted")
}

// Stats handles GET /api/v1/records/:recordId/assignments/stats
func (ctrl *AssignmentController) Stats(c *gin.Context) {
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	stats, err := ctrl.assignments.RecordStats(c.Request.Context(), recordID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}
