package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Repository handles subscription persistence and the usage counts the limit
// checker needs.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// GetByBusiness loads the subscription row for a business.
func (r *Repository) GetByBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	var sub models.BusinessSubscription
	if err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create persists a new subscription row. A non-nil tx joins the caller's
// transaction.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, sub *models.BusinessSubscription) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(sub).Error
}

// Update saves the provided subscription.
func (r *Repository) Update(ctx context.Context, sub *models.BusinessSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// CountBusinessesOwned counts the user's active businesses.
func (r *Repository) CountBusinessesOwned(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("owner_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// CountLocations counts the business's active locations.
func (r *Repository) CountLocations(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Count(&count).Error
	return count, err
}

// CountActiveUsers counts active, non-deleted memberships for the business.
func (r *Repository) CountActiveUsers(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Where("business_id = ? AND is_active = ? AND is_deleted = ?", businessID, true, false).
		Count(&count).Error
	return count, err
}

// TiersForOwner returns the plan tier of every subscription attached to the
// user's active businesses.
func (r *Repository) TiersForOwner(ctx context.Context, userID uuid.UUID) ([]enums.PlanTier, error) {
	var tiers []enums.PlanTier
	err := r.db.WithContext(ctx).
		Model(&models.BusinessSubscription{}).
		Joins("JOIN businesses ON businesses.id = business_subscriptions.business_id").
		Where("businesses.owner_id = ? AND businesses.is_active = ?", userID, true).
		Where("business_subscriptions.status IN ?", []enums.SubscriptionStatus{
			enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive,
		}).
		Pluck("business_subscriptions.plan_tier", &tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

// ListOverdue returns subscriptions whose current period or trial has lapsed
// but whose status still says otherwise.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time) ([]models.BusinessSubscription, error) {
	var subs []models.BusinessSubscription
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.SubscriptionStatus{
			enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive,
		}).
		Where("current_period_end < ?", now).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
