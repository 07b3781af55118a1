package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/storefronthq/storefront-backend/api/responses"
	pkgAuth "github.com/storefronthq/storefront-backend/pkg/auth"
	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

// PrincipalResolver re-confirms that the account behind a token still exists.
// For admin principals it also returns the current permission set, so a
// permission revoked after the token was minted takes effect immediately.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, principalID string, role enums.Role) (enums.PermissionSet, error)
}

// Auth validates a bearer token, re-checks the account, and seeds the request
// context with the principal.
func Auth(cfg config.JWTConfig, accounts PrincipalResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.PrincipalID == "" || !claims.Role.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			var perms enums.PermissionSet
			if accounts != nil {
				perms, err = accounts.ResolvePrincipal(r.Context(), claims.PrincipalID, claims.Role)
				if err != nil {
					if typed := pkgerrors.As(err); typed != nil {
						responses.WriteError(r.Context(), logg, w, err)
						return
					}
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve principal"))
					return
				}
			}

			ctx := WithPrincipal(r.Context(), claims.PrincipalID, claims.Role, perms)
			if logg != nil {
				ctx = logg.WithPrincipal(ctx, claims.PrincipalID, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
