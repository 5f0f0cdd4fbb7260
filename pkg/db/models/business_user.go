package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// BusinessUser links a user with a business and captures their role/status.
// Effective permissions for a business derive from this row (or ownership),
// never from the account-level role alone.
type BusinessUser struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID    uuid.UUID              `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_business_users_pair"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_business_users_pair"`
	Role          enums.MemberRole       `gorm:"column:role;type:member_role;not null"`
	Status        enums.MembershipStatus `gorm:"column:status;type:membership_status;not null"`
	IsActive      bool                   `gorm:"column:is_active;not null;default:true"`
	IsDeleted     bool                   `gorm:"column:is_deleted;not null;default:false"`
	AddedByUserID *uuid.UUID             `gorm:"column:added_by_user_id;type:uuid"`
	JoinedAt      time.Time              `gorm:"column:joined_at;autoCreateTime"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
