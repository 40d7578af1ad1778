package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
)

// EmployeeController handles the /employees endpoints.
type EmployeeController struct {
	employees *services.EmployeeService
}

// NewEmployeeController creates a new employee controller
func NewEmployeeController(employees *services.EmployeeService) *EmployeeController {
	return &EmployeeController{employees: employees}
}

// CreateEmployeeRequest represents the request body for creating an employee
type CreateEmployeeRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Create handles POST /api/v1/employees
func (ctrl *EmployeeController) Create(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	employee, err := ctrl.employees.Create(c.Request.Context(), services.EmployeeInput{
		Name:  req.Name,
		Phone: req.Phone,
		Role:  req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, employee)
}

// List handles GET /api/v1/employees
func (ctrl *EmployeeController) List(c *gin.Context) {
	employees, err := ctrl.employees.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, employees)
}
