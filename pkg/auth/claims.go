package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	PrincipalID string
	Role        enums.Role
}

// AccessTokenClaims is the typed JWT issued to clients. The referenced
// account is re-confirmed on every request; the token alone is not proof the
// principal still exists.
type AccessTokenClaims struct {
	PrincipalID string     `json:"principal_id"`
	Role        enums.Role `json:"role"`
	jwt.RegisteredClaims
}
