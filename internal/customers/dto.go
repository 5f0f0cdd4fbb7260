package customers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
)

// CreateCustomerDTO captures a new customer profile for a business.
type CreateCustomerDTO struct {
	BusinessID  uuid.UUID       `json:"-" validate:"required"`
	Name        string          `json:"name" validate:"required,max=200"`
	Email       *string         `json:"email" validate:"omitempty,email"`
	Phone       *string         `json:"phone" validate:"omitempty,max=32"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// ToModel converts the DTO into a Customer row.
func (d CreateCustomerDTO) ToModel() *models.Customer {
	return &models.Customer{
		BusinessID:  d.BusinessID,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		CreditLimit: d.CreditLimit,
		Balance:     decimal.Zero,
		IsActive:    true,
	}
}

// UpdateCustomerInput carries a partial update; nil fields are untouched.
type UpdateCustomerInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Phone       *string          `json:"phone" validate:"omitempty,max=32"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	IsActive    *bool            `json:"is_active"`
}
