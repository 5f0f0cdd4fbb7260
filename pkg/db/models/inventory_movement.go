package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// InventoryMovement is one append-only ledger entry describing a stock change.
// Rows are never updated or deleted after insert.
type InventoryMovement struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID     uuid.UUID          `gorm:"column:business_id;type:uuid;not null;index"`
	ProductID      uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	LocationID     uuid.UUID          `gorm:"column:location_id;type:uuid;not null;index"`
	Type           enums.MovementType `gorm:"column:type;type:movement_type;not null"`
	Quantity       int                `gorm:"column:quantity;not null"`
	QuantityBefore int                `gorm:"column:quantity_before;not null"`
	QuantityAfter  int                `gorm:"column:quantity_after;not null"`
	Reference      *string            `gorm:"column:reference"`
	Reason         *string            `gorm:"column:reason"`
	Notes          *string            `gorm:"column:notes"`
	PerformedBy    uuid.UUID          `gorm:"column:performed_by;type:uuid;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}
