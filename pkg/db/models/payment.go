package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Payment records money received against an order.
type Payment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	BusinessID uuid.UUID           `gorm:"column:business_id;type:uuid;not null;index"`
	Method     enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Reference  *string             `gorm:"column:reference"`
	ReceivedBy uuid.UUID           `gorm:"column:received_by;type:uuid;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}
