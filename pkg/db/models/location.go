package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a physical store/warehouse belonging to a business. Inventory
// quantities are tracked per (business, product, location).
type Location struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_locations_code"`
	Code       string    `gorm:"column:code;not null;uniqueIndex:ux_locations_code"`
	Name       string    `gorm:"column:name;not null"`
	IsRetail   bool      `gorm:"column:is_retail;not null;default:false"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
