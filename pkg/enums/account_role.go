package enums

import "fmt"

// AccountRole is the account-level role assigned at registration. Effective
// permissions for a business come from the business membership, not this value.
type AccountRole string

const (
	AccountRoleAdmin    AccountRole = "admin"
	AccountRoleManager  AccountRole = "manager"
	AccountRoleCashier  AccountRole = "cashier"
	AccountRoleCustomer AccountRole = "customer"
)

var validAccountRoles = []AccountRole{
	AccountRoleAdmin,
	AccountRoleManager,
	AccountRoleCashier,
	AccountRoleCustomer,
}

// String implements fmt.Stringer.
func (r AccountRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AccountRole.
func (r AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAccountRole converts raw input into an AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	for _, candidate := range validAccountRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
