package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// MemberDTO is the member row returned to controllers, joined with user
// identity fields.
type MemberDTO struct {
	UserID    uuid.UUID              `json:"user_id"`
	Email     string                 `json:"email"`
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Role      enums.MemberRole       `json:"role"`
	Status    enums.MembershipStatus `json:"status"`
	JoinedAt  time.Time              `json:"joined_at"`
}

// BusinessSummaryDTO is one business a user belongs to, with their role.
type BusinessSummaryDTO struct {
	BusinessID   uuid.UUID              `json:"business_id"`
	BusinessName string                 `json:"business_name"`
	Slug         string                 `json:"slug"`
	Role         enums.MemberRole       `json:"role"`
	Status       enums.MembershipStatus `json:"status"`
}
