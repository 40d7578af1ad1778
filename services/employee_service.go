package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// EmployeeService handles the plant workers assignments are handed to.
type EmployeeService struct {
	db *gorm.DB
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(db *gorm.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

// EmployeeInput carries the fields for a new employee.
type EmployeeInput struct {
	Name  string
	Phone string
	Role  string
}

// Create inserts an employee. Role defaults to operator.
func (s *EmployeeService) Create(ctx context.Context, input EmployeeInput) (*models.Employee, error) {
	if input.Name == "" {
		return nil, NewValidationError("name", "is required")
	}
	role := input.Role
	if role == "" {
		role = "operator"
	}
	if role != "operator" && role != "supervisor" {
		return nil, NewValidationError("role", fmt.Sprintf("%q is not a valid role", input.Role))
	}

	employee := models.Employee{
		Name:  input.Name,
		Phone: input.Phone,
		Role:  role,
	}
	if err := s.db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// Get fetches one employee.
func (s *EmployeeService) Get(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "employee", ID: id}
		}
		return nil, err
	}
	return &employee, nil
}

// List returns all employees in name order.
func (s *EmployeeService) List(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := s.db.WithContext(ctx).Order("name ASC").Find(&employees).Error
	return employees, err
}
