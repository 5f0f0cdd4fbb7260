package rbac

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
)

// Repository exposes the persistence queries the RBAC layer needs: explicit
// per-user permission rows and the user↔business relationship check.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActivePermissions returns the user's explicit permission rows, skipping
// expired ones. Both grants and revokes are returned; the resolver layers
// them.
func (r *Repository) ListActivePermissions(ctx context.Context, userID uuid.UUID) ([]models.UserPermission, error) {
	var rows []models.UserPermission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UserBelongsToBusiness reports whether the user owns the business or holds
// an active, non-deleted membership for it.
func (r *Repository) UserBelongsToBusiness(ctx context.Context, userID, businessID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ? AND owner_id = ?", businessID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.BusinessUser{}).
		Where("business_id = ? AND user_id = ?", businessID, userID).
		Where("is_active = ? AND is_deleted = ?", true, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SeedCatalog reconciles the permissions table with the in-memory catalog.
// The catalog is the source of truth for shape; rows only exist so explicit
// grants have something to reference in reporting queries.
func (r *Repository) SeedCatalog(ctx context.Context, catalog *Catalog) error {
	for _, perm := range catalog.All() {
		err := r.db.WithContext(ctx).
			Exec(`INSERT INTO permissions (name, resource, action, is_business, is_active)
			      VALUES (?, ?, ?, ?, TRUE)
			      ON CONFLICT (name) DO UPDATE SET resource = EXCLUDED.resource,
			          action = EXCLUDED.action, is_business = EXCLUDED.is_business,
			          is_active = TRUE`,
				perm.Name, perm.Resource, perm.Action, perm.Scope == ScopeBusiness).Error
		if err != nil {
			return err
		}
	}
	return nil
}
