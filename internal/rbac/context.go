package rbac

import (
	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// AuthContext is the resolved principal attached to a request. Permissions
// holds the union of role permissions and active global grants; revokes are
// kept separately and applied at evaluation time. Business-scoped grants and
// revokes are kept per business so a revoke for one business never leaks into
// another.
type AuthContext struct {
	UserID      uuid.UUID
	Role        enums.AccountRole
	Permissions map[string]struct{}

	BusinessGrants  map[uuid.UUID]map[string]struct{}
	BusinessRevokes map[uuid.UUID]map[string]struct{}
	GlobalRevokes   map[string]struct{}
}

// holds reports whether the named permission is effective for the given
// business (nil business evaluates the global layer only). Union first, then
// filter: role/global set ∪ per-business grants, minus any active revoke that
// applies to this pair.
func (a *AuthContext) holds(name string, businessID *uuid.UUID) bool {
	granted := false
	if _, ok := a.Permissions[name]; ok {
		granted = true
	}
	if !granted && businessID != nil {
		if grants, ok := a.BusinessGrants[*businessID]; ok {
			_, granted = grants[name]
		}
	}
	if !granted {
		return false
	}
	if _, revoked := a.GlobalRevokes[name]; revoked {
		return false
	}
	if businessID != nil {
		if revokes, ok := a.BusinessRevokes[*businessID]; ok {
			if _, revoked := revokes[name]; revoked {
				return false
			}
		}
	}
	return true
}
