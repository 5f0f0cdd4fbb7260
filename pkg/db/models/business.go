package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Business represents the canonical tenant model. Every tenant-owned row
// carries its BusinessID; that scoping is the system's isolation boundary.
type Business struct {
	ID        uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string               `gorm:"column:name;not null"`
	Slug      string               `gorm:"column:slug;not null;uniqueIndex"`
	Type      enums.BusinessType   `gorm:"column:type;type:business_type;not null"`
	Status    enums.BusinessStatus `gorm:"column:status;type:business_status;not null;default:'active'"`
	OwnerID   uuid.UUID            `gorm:"column:owner_id;type:uuid;not null;index"`
	IsActive  bool                 `gorm:"column:is_active;not null;default:true"`
	Phone     *string              `gorm:"column:phone"`
	Email     *string              `gorm:"column:email"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
