package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Expense is a business-scoped operating cost entry.
type Expense struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID  uuid.UUID             `gorm:"column:business_id;type:uuid;not null;index"`
	Category    enums.ExpenseCategory `gorm:"column:category;type:expense_category;not null"`
	Description string                `gorm:"column:description;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	IncurredAt  time.Time             `gorm:"column:incurred_at;not null"`
	RecordedBy  uuid.UUID             `gorm:"column:recorded_by;type:uuid;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
