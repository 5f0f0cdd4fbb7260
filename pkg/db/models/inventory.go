package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory tracks the on-hand quantity for one product at one location.
// Quantity never goes below zero; every change to it is recorded as an
// InventoryMovement in the same transaction.
type Inventory struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_inventory_slot"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_inventory_slot"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;not null;uniqueIndex:ux_inventory_slot"`
	Quantity   int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
