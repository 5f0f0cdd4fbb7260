package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetMembership retrieves a membership by user and business, including
// soft-deleted rows so callers can distinguish "never a member" from
// "removed".
func (r *Repository) GetMembership(ctx context.Context, userID, businessID uuid.UUID) (*models.BusinessUser, error) {
	var membership models.BusinessUser
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// CreateMembership persists a new membership record.
func (r *Repository) CreateMembership(ctx context.Context, businessID, userID uuid.UUID, role enums.MemberRole, addedBy *uuid.UUID, status enums.MembershipStatus) (*models.BusinessUser, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", role)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid membership status %q", status)
	}

	membership := &models.BusinessUser{
		ID:            uuid.New(),
		BusinessID:    businessID,
		UserID:        userID,
		Role:          role,
		Status:        status,
		IsActive:      status == enums.MembershipStatusActive,
		AddedByUserID: addedBy,
	}
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// Restore revives a soft-deleted membership with a new role.
func (r *Repository) Restore(ctx context.Context, membership *models.BusinessUser, role enums.MemberRole, status enums.MembershipStatus) error {
	membership.Role = role
	membership.Status = status
	membership.IsActive = status == enums.MembershipStatusActive
	membership.IsDeleted = false
	return r.db.WithContext(ctx).Save(membership).Error
}

// SoftDelete marks the membership removed without dropping its history.
func (r *Repository) SoftDelete(ctx context.Context, businessID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Where("business_id = ? AND user_id = ? AND is_deleted = ?", businessID, userID, false).
		Updates(map[string]any{"is_deleted": true, "is_active": false})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateRole changes the member's business-scoped role.
func (r *Repository) UpdateRole(ctx context.Context, businessID, userID uuid.UUID, role enums.MemberRole) (bool, error) {
	if !role.IsValid() {
		return false, fmt.Errorf("invalid member role %q", role)
	}
	res := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Where("business_id = ? AND user_id = ? AND is_deleted = ?", businessID, userID, false).
		UpdateColumn("role", role)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListMembers returns the business's non-deleted members with user identity.
func (r *Repository) ListMembers(ctx context.Context, businessID uuid.UUID) ([]MemberDTO, error) {
	var rows []MemberDTO
	err := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Select(`business_users.user_id, users.email, users.first_name, users.last_name,
		        business_users.role, business_users.status, business_users.joined_at`).
		Joins("JOIN users ON users.id = business_users.user_id").
		Where("business_users.business_id = ? AND business_users.is_deleted = ?", businessID, false).
		Order("business_users.joined_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUserBusinesses returns the businesses a user actively belongs to.
func (r *Repository) ListUserBusinesses(ctx context.Context, userID uuid.UUID) ([]BusinessSummaryDTO, error) {
	var rows []BusinessSummaryDTO
	err := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Select(`business_users.business_id, businesses.name AS business_name, businesses.slug,
		        business_users.role, business_users.status`).
		Joins("JOIN businesses ON businesses.id = business_users.business_id").
		Where("business_users.user_id = ? AND business_users.is_deleted = ? AND business_users.is_active = ?",
			userID, false, true).
		Order("businesses.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UserHasRole reports whether the user holds one of the provided roles for
// the business, counting only active, non-deleted memberships.
func (r *Repository) UserHasRole(ctx context.Context, userID, businessID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Where("user_id = ? AND business_id = ? AND role IN ?", userID, businessID, roles).
		Where("is_active = ? AND is_deleted = ?", true, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountMembersWithRoles counts active members holding any of the roles.
func (r *Repository) CountMembersWithRoles(ctx context.Context, businessID uuid.UUID, roles ...enums.MemberRole) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Where("business_id = ? AND role IN ?", businessID, roles).
		Where("is_active = ? AND is_deleted = ?", true, false).
		Count(&count).Error
	return count, err
}
