// Package kasir holds the client-side access model of the point-of-sale app:
// the static permission table, the role store and the permission gate, plus
// the App container that owns them.
package kasir

import "sort"

// Role is a user privilege tier.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// roleHierarchy ranks roles; higher means more privileged. Ranks are distinct.
var roleHierarchy = map[Role]int{
	RoleOwner:   3,
	RoleManager: 2,
	RoleCashier: 1,
}

// Roles returns every role, highest rank first.
func Roles() []Role {
	return []Role{RoleOwner, RoleManager, RoleCashier}
}

// ParseRole validates a stored or user-supplied role name.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Rank returns the hierarchy level of r, or 0 for an invalid role.
func Rank(r Role) int {
	return roleHierarchy[r]
}

// Feature keys of gated menu items.
const (
	FeatureDashboard     = "dashboard"
	FeatureTransaction   = "transaction"
	FeatureHistory       = "history"
	FeatureProducts      = "products"
	FeatureStock         = "stock"
	FeatureRecipes       = "recipes"
	FeatureEmployees     = "employees"
	FeatureReports       = "reports"
	FeatureBranches      = "branches"
	FeatureSettings      = "settings"
	FeatureNotifications = "notifications"
	FeaturePrinter       = "printer"
	FeatureCashDrawer    = "cash_drawer"
)

// permissionTable lists, per feature, the roles allowed to open it. It is
// not derived from roleHierarchy: cash_drawer is deliberately not granted to
// owner even though owner outranks both roles that have it.
var permissionTable = map[string][]Role{
	FeatureDashboard:     {RoleOwner, RoleManager, RoleCashier},
	FeatureTransaction:   {RoleOwner, RoleManager, RoleCashier},
	FeatureHistory:       {RoleOwner, RoleManager, RoleCashier},
	FeatureProducts:      {RoleOwner, RoleManager},
	FeatureStock:         {RoleOwner, RoleManager},
	FeatureRecipes:       {RoleOwner, RoleManager},
	FeatureEmployees:     {RoleOwner},
	FeatureReports:       {RoleOwner, RoleManager},
	FeatureBranches:      {RoleOwner},
	FeatureSettings:      {RoleOwner, RoleManager},
	FeatureNotifications: {RoleOwner, RoleManager, RoleCashier},
	FeaturePrinter:       {RoleOwner, RoleManager, RoleCashier},
	FeatureCashDrawer:    {RoleManager, RoleCashier},
}

// HasPermission reports whether role may open featureKey. Unknown feature
// keys and invalid roles are denied.
func HasPermission(role Role, featureKey string) bool {
	allowed, ok := permissionTable[featureKey]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CanAccessRole reports whether actual ranks at or above required.
func CanAccessRole(required, actual Role) bool {
	if !required.Valid() || !actual.Valid() {
		return false
	}
	return Rank(actual) >= Rank(required)
}

// AllowedRoles returns a copy of the roles granted featureKey.
func AllowedRoles(featureKey string) []Role {
	allowed := permissionTable[featureKey]
	out := make([]Role, len(allowed))
	copy(out, allowed)
	return out
}

// FeatureKeys returns every feature key in the table, sorted.
func FeatureKeys() []string {
	keys := make([]string, 0, len(permissionTable))
	for k := range permissionTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AllowedFeatures returns the sorted feature keys role may open, used to
// build the dashboard menu.
func AllowedFeatures(role Role) []string {
	var keys []string
	for _, k := range FeatureKeys() {
		if HasPermission(role, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// CheckFeatures evaluates several feature keys for one role at once.
func CheckFeatures(role Role, featureKeys ...string) map[string]bool {
	results := make(map[string]bool, len(featureKeys))
	for _, k := range featureKeys {
		results[k] = HasPermission(role, k)
	}
	return results
}
