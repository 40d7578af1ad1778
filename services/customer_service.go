package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// CustomerService handles the merchants the plant processes orders for.
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService creates a new customer service
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// CustomerInput carries the caller-supplied customer fields; the unique
// customer code is generated, never supplied.
type CustomerInput struct {
	Name    string
	Mobile  string
	Email   string
	Address string
	Notes   string
}

// UpdateCustomerInput patches mutable customer fields.
type UpdateCustomerInput struct {
	Name    *string
	Mobile  *string
	Email   *string
	Address *string
	Notes   *string
}

// Create inserts a customer with a generated sequential code (CUST-0001).
func (s *CustomerService) Create(ctx context.Context, input CustomerInput) (*models.Customer, error) {
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "is required"
	}
	if input.Mobile == "" {
		fields["mobile"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	customer := models.Customer{
		Name:    input.Name,
		Mobile:  input.Mobile,
		Email:   input.Email,
		Address: input.Address,
		Notes:   input.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := nextSequentialCode(tx, &models.Customer{}, "CUST-%04d")
		if err != nil {
			return err
		}
		customer.Code = code
		return tx.Create(&customer).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, &ConflictError{
				Message:   "a customer with this mobile number or code already exists",
				Remaining: -1,
			}
		}
		return nil, err
	}

	log.Info().
		Uint("customer_id", customer.ID).
		Str("code", customer.Code).
		Msg("Customer created")
	return &customer, nil
}

// Get fetches one customer.
func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "customer", ID: id}
		}
		return nil, err
	}
	return &customer, nil
}

// List returns all customers, newest first.
func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.WithContext(ctx).Order("id DESC").Find(&customers).Error
	return customers, err
}

// Update patches customer fields.
func (s *CustomerService) Update(ctx context.Context, id uint, input UpdateCustomerInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, NewValidationError("name", "must not be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Mobile != nil {
		if *input.Mobile == "" {
			return nil, NewValidationError("mobile", "must not be empty")
		}
		updates["mobile"] = *input.Mobile
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(customer).Updates(updates).Error; err != nil {
			if isDuplicateKeyError(err) {
				return nil, &ConflictError{
					Message:   "a customer with this mobile number already exists",
					Remaining: -1,
				}
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a customer. Customers with orders cannot be removed.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var orderCount int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", id).Count(&orderCount).Error; err != nil {
		return err
	}
	if orderCount > 0 {
		return &ConflictError{
			Message:   fmt.Sprintf("customer has %d orders and cannot be deleted", orderCount),
			Remaining: -1,
		}
	}
	return s.db.WithContext(ctx).Delete(customer).Error
}

// nextSequentialCode derives the next code in a numbered sequence from the
// highest row id, including soft-deleted rows so codes are never reused.
func nextSequentialCode(tx *gorm.DB, model interface{}, format string) (string, error) {
	var maxID int64
	err := tx.Unscoped().Model(model).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(format, maxID+1), nil
}
