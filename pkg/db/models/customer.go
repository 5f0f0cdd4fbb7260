package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a business-scoped buyer profile, used for credit sales and
// purchase history.
type Customer struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID  uuid.UUID       `gorm:"column:business_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Email       *string         `gorm:"column:email"`
	Phone       *string         `gorm:"column:phone"`
	CreditLimit decimal.Decimal `gorm:"column:credit_limit;type:numeric(12,2);not null;default:0"`
	Balance     decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
