package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// BusinessSubscription persists the billing state for one business. Exactly
// one row per business; created as a trial at business creation.
type BusinessSubscription struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID         uuid.UUID                `gorm:"column:business_id;type:uuid;not null;uniqueIndex"`
	PlanTier           enums.PlanTier           `gorm:"column:plan_tier;type:plan_tier;not null;default:'basic'"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'trial'"`
	BillingCycle       enums.BillingCycle       `gorm:"column:billing_cycle;type:billing_cycle;not null;default:'monthly'"`
	CurrentPeriodStart time.Time                `gorm:"column:current_period_start;not null"`
	CurrentPeriodEnd   time.Time                `gorm:"column:current_period_end;not null"`
	TrialEndsAt        *time.Time               `gorm:"column:trial_ends_at"`
	CancelledAt        *time.Time               `gorm:"column:cancelled_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
