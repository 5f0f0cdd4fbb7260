package models

import (
	"time"

	"github.com/google/uuid"
)

// UserPermission grants or revokes a single permission for one user, optionally
// scoped to one business and optionally time-limited. Granted=false rows
// subtract a permission the role would otherwise provide.
type UserPermission struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_user_permissions_grant"`
	Permission string     `gorm:"column:permission;not null;uniqueIndex:ux_user_permissions_grant"`
	BusinessID *uuid.UUID `gorm:"column:business_id;type:uuid;uniqueIndex:ux_user_permissions_grant"`
	Granted    bool       `gorm:"column:granted;not null;default:true"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
