package enums

import "fmt"

// Permission is a capability tag attached to admin accounts.
type Permission string

const (
	PermissionManageProducts   Permission = "manage_products"
	PermissionManageOrders     Permission = "manage_orders"
	PermissionManagePromotions Permission = "manage_promotions"
	PermissionManageUsers      Permission = "manage_users"
	PermissionViewReports      Permission = "view_reports"
)

var validPermissions = []Permission{
	PermissionManageProducts,
	PermissionManageOrders,
	PermissionManagePromotions,
	PermissionManageUsers,
	PermissionViewReports,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}

// PermissionSet is a set of capability tags; checks are containment tests.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the provided tags.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// HasAll reports whether every required permission is present.
func (s PermissionSet) HasAll(required ...Permission) bool {
	for _, p := range required {
		if _, ok := s[p]; !ok {
			return false
		}
	}
	return true
}

// List returns the set members as a slice with stable enum order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for _, candidate := range validPermissions {
		if _, ok := s[candidate]; ok {
			out = append(out, candidate)
		}
	}
	return out
}
