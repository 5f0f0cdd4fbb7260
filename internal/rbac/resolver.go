package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type permissionLister interface {
	ListActivePermissions(ctx context.Context, userID uuid.UUID) ([]models.UserPermission, error)
}

// Resolver turns an authenticated user id into an AuthContext carrying the
// effective permission layers.
type Resolver struct {
	users   userFinder
	perms   permissionLister
	catalog *Catalog
}

// NewResolver builds a resolver against the provided repositories.
func NewResolver(users userFinder, perms permissionLister, catalog *Catalog) (*Resolver, error) {
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if perms == nil {
		return nil, fmt.Errorf("permissions repository required")
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Resolver{users: users, perms: perms, catalog: catalog}, nil
}

// Resolve loads the user and computes their permission layers. A missing or
// inactive user yields a nil context with no error; the caller maps that to
// an unauthenticated response. Database errors propagate.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (*AuthContext, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	authCtx := &AuthContext{
		UserID:          user.ID,
		Role:            user.Role,
		Permissions:     make(map[string]struct{}),
		BusinessGrants:  make(map[uuid.UUID]map[string]struct{}),
		BusinessRevokes: make(map[uuid.UUID]map[string]struct{}),
		GlobalRevokes:   make(map[string]struct{}),
	}
	for _, name := range r.catalog.PermissionsFor(user.Role) {
		authCtx.Permissions[name] = struct{}{}
	}

	rows, err := r.perms.ListActivePermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		switch {
		case row.Granted && row.BusinessID == nil:
			authCtx.Permissions[row.Permission] = struct{}{}
		case row.Granted:
			grants := authCtx.BusinessGrants[*row.BusinessID]
			if grants == nil {
				grants = make(map[string]struct{})
				authCtx.BusinessGrants[*row.BusinessID] = grants
			}
			grants[row.Permission] = struct{}{}
		case row.BusinessID == nil:
			authCtx.GlobalRevokes[row.Permission] = struct{}{}
		default:
			revokes := authCtx.BusinessRevokes[*row.BusinessID]
			if revokes == nil {
				revokes = make(map[string]struct{})
				authCtx.BusinessRevokes[*row.BusinessID] = revokes
			}
			revokes[row.Permission] = struct{}{}
		}
	}

	return authCtx, nil
}
