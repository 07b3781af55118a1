package enums

import "testing"

func TestParseRole(t *testing.T) {
	role, err := ParseRole("superadmin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleSuperadmin {
		t.Fatalf("expected superadmin, got %s", role)
	}
	if !role.IsAdmin() {
		t.Fatal("superadmin should count as admin")
	}
	if RoleUser.IsAdmin() {
		t.Fatal("user should not count as admin")
	}
	if _, err := ParseRole("root"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusProcessing, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestPermissionSet(t *testing.T) {
	set := NewPermissionSet(PermissionManageOrders, PermissionViewReports)
	if !set.HasAll(PermissionManageOrders) {
		t.Fatal("expected manage_orders to be present")
	}
	if set.HasAll(PermissionManageOrders, PermissionManageUsers) {
		t.Fatal("manage_users should be missing")
	}
	list := set.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(list))
	}
	if list[0] != PermissionManageOrders {
		t.Fatalf("expected stable enum order, got %v", list)
	}
}

func TestParseDiscountType(t *testing.T) {
	if _, err := ParseDiscountType("percentage"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseDiscountType("bogof"); err == nil {
		t.Fatal("expected error for unknown discount type")
	}
}

func TestActivityTypeValidity(t *testing.T) {
	if !ActivityPurchase.IsValid() {
		t.Fatal("purchase should be valid")
	}
	if ActivityType("dance").IsValid() {
		t.Fatal("unknown activity should be invalid")
	}
}
