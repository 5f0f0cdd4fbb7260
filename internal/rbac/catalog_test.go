package rbac

import (
	"testing"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

func TestPermissionName(t *testing.T) {
	t.Parallel()

	if got := PermissionName("pos", "create"); got != "pos.create" {
		t.Fatalf("expected pos.create, got %q", got)
	}
}

func TestCatalogRoleHierarchyStrictlyIncreases(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	chain := []enums.AccountRole{
		enums.AccountRoleCustomer,
		enums.AccountRoleCashier,
		enums.AccountRoleManager,
		enums.AccountRoleAdmin,
	}

	for i := 1; i < len(chain); i++ {
		lower := catalog.PermissionsFor(chain[i-1])
		higher := toSet(catalog.PermissionsFor(chain[i]))
		for _, name := range lower {
			if _, ok := higher[name]; !ok {
				t.Fatalf("%s lacks %q held by %s", chain[i], name, chain[i-1])
			}
		}
		if len(higher) <= len(lower) {
			t.Fatalf("%s must hold strictly more permissions than %s", chain[i], chain[i-1])
		}
	}
}

func TestCatalogEveryRolePermissionExists(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	for _, role := range []enums.AccountRole{
		enums.AccountRoleCustomer,
		enums.AccountRoleCashier,
		enums.AccountRoleManager,
		enums.AccountRoleAdmin,
	} {
		for _, name := range catalog.PermissionsFor(role) {
			if _, ok := catalog.Lookup(name); !ok {
				t.Fatalf("role %s references unknown permission %q", role, name)
			}
		}
	}
}

func TestCatalogScopes(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()

	perm, ok := catalog.Lookup("business.create")
	if !ok {
		t.Fatal("business.create missing from catalog")
	}
	if perm.Scope != ScopeGlobal {
		t.Fatalf("business.create should be global, got %s", perm.Scope)
	}

	if !catalog.IsBusinessScoped("pos.create") {
		t.Fatal("pos.create should be business scoped")
	}
	if catalog.IsBusinessScoped("no.such") {
		t.Fatal("unknown names must not report business scoped")
	}
}

func TestCatalogPermissionsForReturnsCopy(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	names := catalog.PermissionsFor(enums.AccountRoleCashier)
	if len(names) == 0 {
		t.Fatal("cashier set should not be empty")
	}
	names[0] = "mutated"
	if catalog.PermissionsFor(enums.AccountRoleCashier)[0] == "mutated" {
		t.Fatal("catalog leaked its internal slice")
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
