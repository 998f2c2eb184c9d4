package nexus

// Role is the closed set of account roles the storefront understands.
type Role string

const (
	// RoleCustomer is an individual buyer account.
	RoleCustomer Role = "customer"
	// RoleBusiness is a buyer attached to an organization account.
	RoleBusiness Role = "business"
	// RoleAdmin is a platform administrator.
	RoleAdmin Role = "admin"
	// RoleUnknown is the explicit default for missing or unrecognized role
	// values. It routes like a customer.
	RoleUnknown Role = ""
)

// Canonical dashboard paths per role.
const (
	CustomerDashboardPath = "/customer/dashboard"
	BusinessDashboardPath = "/business/dashboard"
	AdminDashboardPath    = "/admin/dashboard"
)

// IsValid checks if the role is one of the predefined valid roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleBusiness, RoleAdmin:
		return true
	default:
		return false
	}
}

// DashboardPath maps the role to its canonical dashboard route. The mapping
// is total: anything outside the closed set falls back to the customer path.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return AdminDashboardPath
	case RoleBusiness:
		return BusinessDashboardPath
	default:
		return CustomerDashboardPath
	}
}

// ParseRole safely parses a string into a Role. Unrecognized values come back
// as RoleUnknown with ok=false, never an error.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	if role.IsValid() {
		return role, true
	}
	return RoleUnknown, false
}

// AllRoles returns the closed role set.
func AllRoles() []Role {
	return []Role{RoleCustomer, RoleBusiness, RoleAdmin}
}
