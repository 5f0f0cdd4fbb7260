package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type businessRelationship interface {
	UserBelongsToBusiness(ctx context.Context, userID, businessID uuid.UUID) (bool, error)
}

// Checker decides allow/deny for a resolved principal. Absence of permission
// is a normal false; only database failures return an error, and callers must
// fail closed on them.
type Checker struct {
	memberships businessRelationship
	catalog     *Catalog
}

// NewChecker builds a checker against the membership lookup.
func NewChecker(memberships businessRelationship, catalog *Catalog) (*Checker, error) {
	if memberships == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Checker{memberships: memberships, catalog: catalog}, nil
}

// HasPermission evaluates "<resource>.<action>" for the principal, optionally
// against one business. Names outside the catalog always deny.
func (c *Checker) HasPermission(ctx context.Context, authCtx *AuthContext, resource, action string, businessID *uuid.UUID) (bool, error) {
	if authCtx == nil {
		return false, nil
	}

	name := PermissionName(resource, action)
	perm, ok := c.catalog.Lookup(name)
	if !ok {
		return false, nil
	}

	if !authCtx.holds(name, businessID) {
		return false, nil
	}

	if perm.Scope == ScopeBusiness && businessID != nil {
		belongs, err := c.memberships.UserBelongsToBusiness(ctx, authCtx.UserID, *businessID)
		if err != nil {
			return false, err
		}
		if !belongs {
			return false, nil
		}
	}

	return true, nil
}
