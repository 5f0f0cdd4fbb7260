package expenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// CreateExpenseDTO captures a new operating expense entry.
type CreateExpenseDTO struct {
	BusinessID  uuid.UUID             `json:"-" validate:"required"`
	Category    enums.ExpenseCategory `json:"category" validate:"required"`
	Description string                `json:"description" validate:"required,max=500"`
	Amount      decimal.Decimal       `json:"amount" validate:"required"`
	IncurredAt  *time.Time            `json:"incurred_at"`
	RecordedBy  uuid.UUID             `json:"-" validate:"required"`
}

// ToModel converts the DTO into an Expense row. A missing incurred_at
// defaults to now.
func (d CreateExpenseDTO) ToModel() *models.Expense {
	incurred := time.Now().UTC()
	if d.IncurredAt != nil {
		incurred = *d.IncurredAt
	}
	return &models.Expense{
		BusinessID:  d.BusinessID,
		Category:    d.Category,
		Description: d.Description,
		Amount:      d.Amount,
		IncurredAt:  incurred,
		RecordedBy:  d.RecordedBy,
	}
}

// UpdateExpenseInput carries a partial update; nil fields are untouched.
type UpdateExpenseInput struct {
	Category    *enums.ExpenseCategory `json:"category"`
	Description *string                `json:"description" validate:"omitempty,max=500"`
	Amount      *decimal.Decimal       `json:"amount"`
	IncurredAt  *time.Time             `json:"incurred_at"`
}

// ListFilter narrows expense listing.
type ListFilter struct {
	Category *enums.ExpenseCategory
	From     *time.Time
	To       *time.Time
}
