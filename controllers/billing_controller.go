package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tharun-raj/washtrack-api/services"
)

// BillingController handles the /invoices endpoints.
type BillingController struct {
	billing *services.BillingService
}

// NewBillingController creates a new billing controller
func NewBillingController(billing *services.BillingService) *BillingController {
	return &BillingController{billing: billing}
}

// CreateInvoiceRequest represents the request body for issuing an invoice.
// Amounts accept JSON numbers or numeric strings.
type CreateInvoiceRequest struct {
	OrderID uint            `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Tax     decimal.Decimal `json:"tax"`
	Notes   string          `json:"notes"`
}

// Create handles POST /api/v1/invoices
func (ctrl *BillingController) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	invoice, err := ctrl.billing.Create(c.Request.Context(), services.InvoiceInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Tax:     req.Tax,
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, invoice)
}

// Get handles GET /api/v1/invoices/:id
func (ctrl *BillingController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := ctrl.billing.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

// List handles GET /api/v1/invoices
func (ctrl *BillingController) List(c *gin.Context) {
	var filters services.InvoiceFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindingError(c, err)
		return
	}

	invoices, err := ctrl.billing.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoices)
}

// MarkPaid handles PUT /api/v1/invoices/:id/payment
func (ctrl *BillingController) MarkPaid(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := ctrl.billing.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}
