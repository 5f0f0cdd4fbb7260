package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Order represents one completed point-of-sale transaction. Orders are
// written atomically with their items, payments, and inventory effects.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID    uuid.UUID           `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_orders_number"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_number"`
	LocationID    uuid.UUID           `gorm:"column:location_id;type:uuid;not null"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	CashierID     uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'completed'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountTotal decimal.Decimal     `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	TaxTotal      decimal.Decimal     `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Notes         *string             `gorm:"column:notes"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments      []Payment           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	VoidedAt      *time.Time          `gorm:"column:voided_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
