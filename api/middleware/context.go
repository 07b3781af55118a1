package middleware

import (
	"context"

	"github.com/storefronthq/storefront-backend/pkg/enums"
)

type contextKey string

const (
	ctxPrincipalID contextKey = "principal_id"
	ctxRole        contextKey = "actor_role"
	ctxPermissions contextKey = "permissions"
)

func PrincipalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPrincipalID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

func PermissionsFromContext(ctx context.Context) enums.PermissionSet {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPermissions).(enums.PermissionSet); ok {
		return v
	}
	return nil
}

// WithPrincipal seeds the context with an authenticated principal. The auth
// middleware uses it after token verification; tests use it directly.
func WithPrincipal(ctx context.Context, principalID string, role enums.Role, perms enums.PermissionSet) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPrincipalID, principalID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if perms != nil {
		ctx = context.WithValue(ctx, ctxPermissions, perms)
	}
	return ctx
}
