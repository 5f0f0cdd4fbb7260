package rbac

import (
	"fmt"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Scope classifies how a permission is enforced.
type Scope string

const (
	// ScopeGlobal permissions are satisfied by holding the name alone.
	ScopeGlobal Scope = "global"
	// ScopeBusiness permissions additionally require the actor to own the
	// target business or hold an active membership for it.
	ScopeBusiness Scope = "business"
)

// Permission is one catalog entry.
type Permission struct {
	Name     string
	Resource string
	Action   string
	Scope    Scope
}

// PermissionName formats the canonical "<resource>.<action>" name. Catalog
// seeding and runtime checks both go through this function.
func PermissionName(resource, action string) string {
	return fmt.Sprintf("%s.%s", resource, action)
}

// Catalog is the immutable permission catalog. It is built once at package
// init and never mutated afterwards; database rows mirroring it are a seed
// cache, not the source of truth.
type Catalog struct {
	byName  map[string]Permission
	ordered []Permission
	byRole  map[enums.AccountRole][]string
}

var defaultCatalog = buildCatalog()

// DefaultCatalog returns the process-wide permission catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func buildCatalog() *Catalog {
	c := &Catalog{
		byName: make(map[string]Permission),
		byRole: make(map[enums.AccountRole][]string),
	}

	global := func(resource, action string) string {
		return c.add(resource, action, ScopeGlobal)
	}
	business := func(resource, action string) string {
		return c.add(resource, action, ScopeBusiness)
	}

	var (
		businessCreate = global("business", "create")
		businessView   = business("business", "view")
		businessUpdate = business("business", "update")
		businessDelete = business("business", "delete")

		membersView   = business("members", "view")
		membersAdd    = business("members", "add")
		membersUpdate = business("members", "update")
		membersRemove = business("members", "remove")

		productsCreate = business("products", "create")
		productsView   = business("products", "view")
		productsUpdate = business("products", "update")
		productsDelete = business("products", "delete")

		inventoryView     = business("inventory", "view")
		inventoryAdjust   = business("inventory", "adjust")
		inventoryTransfer = business("inventory", "transfer")

		posCreate = business("pos", "create")
		posView   = business("pos", "view")
		posVoid   = business("pos", "void")

		customersCreate = business("customers", "create")
		customersView   = business("customers", "view")
		customersUpdate = business("customers", "update")
		customersDelete = business("customers", "delete")

		paymentsRecord = business("payments", "record")

		expensesCreate = business("expenses", "create")
		expensesView   = business("expenses", "view")
		expensesUpdate = business("expenses", "update")
		expensesDelete = business("expenses", "delete")

		subscriptionView   = business("subscription", "view")
		subscriptionManage = business("subscription", "manage")

		reportsView = business("reports", "view")
	)

	// Role sets grow strictly: each role extends the one below it.
	customer := []string{}
	cashier := append(append([]string{}, customer...),
		posCreate, posView,
		productsView,
		inventoryView,
		customersView, customersCreate,
		paymentsRecord,
	)
	manager := append(append([]string{}, cashier...),
		businessCreate, businessView, businessUpdate,
		posVoid,
		productsCreate, productsUpdate, productsDelete,
		inventoryAdjust, inventoryTransfer,
		customersUpdate, customersDelete,
		expensesCreate, expensesView, expensesUpdate, expensesDelete,
		membersView,
		subscriptionView,
		reportsView,
	)
	admin := append(append([]string{}, manager...),
		businessDelete,
		membersAdd, membersUpdate, membersRemove,
		subscriptionManage,
	)

	c.byRole[enums.AccountRoleCustomer] = customer
	c.byRole[enums.AccountRoleCashier] = cashier
	c.byRole[enums.AccountRoleManager] = manager
	c.byRole[enums.AccountRoleAdmin] = admin

	return c
}

func (c *Catalog) add(resource, action string, scope Scope) string {
	name := PermissionName(resource, action)
	if _, exists := c.byName[name]; exists {
		panic(fmt.Sprintf("duplicate permission %q in catalog", name))
	}
	perm := Permission{Name: name, Resource: resource, Action: action, Scope: scope}
	c.byName[name] = perm
	c.ordered = append(c.ordered, perm)
	return name
}

// Lookup returns the catalog entry for the given name.
func (c *Catalog) Lookup(name string) (Permission, bool) {
	perm, ok := c.byName[name]
	return perm, ok
}

// IsBusinessScoped reports whether enforcing the named permission requires a
// business relationship check. Unknown names report false.
func (c *Catalog) IsBusinessScoped(name string) bool {
	perm, ok := c.byName[name]
	return ok && perm.Scope == ScopeBusiness
}

// PermissionsFor returns the fixed permission names assigned to a role.
func (c *Catalog) PermissionsFor(role enums.AccountRole) []string {
	names := c.byRole[role]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// All returns every catalog entry in definition order.
func (c *Catalog) All() []Permission {
	out := make([]Permission, len(c.ordered))
	copy(out, c.ordered)
	return out
}
