package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
)

// CustomerController handles the /customers endpoints.
type CustomerController struct {
	customers *services.CustomerService
}

// NewCustomerController creates a new customer controller
func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{customers: customers}
}

// CreateCustomerRequest represents the request body for creating a customer
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Mobile  string `json:"mobile" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// UpdateCustomerRequest represents the request body for updating a customer
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Mobile  *string `json:"mobile"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// Create handles POST /api/v1/customers
func (ctrl *CustomerController) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	customer, err := ctrl.customers.Create(c.Request.Context(), services.CustomerInput{
		Name:    req.Name,
		Mobile:  req.Mobile,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, customer)
}

// Get handles GET /api/v1/customers/:id
func (ctrl *CustomerController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := ctrl.customers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

// List handles GET /api/v1/customers
func (ctrl *CustomerController) List(c *gin.Context) {
	customers, err := ctrl.customers.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customers)
}

// Update handles PUT /api/v1/customers/:id
func (ctrl *CustomerController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	customer, err := ctrl.customers.Update(c.Request.Context(), id, services.UpdateCustomerInput{
		Name:    req.Name,
		Mobile:  req.Mobile,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

// Delete handles DELETE /api/v1/customers/:id
func (ctrl *CustomerController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.customers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Customer deleted")
}
